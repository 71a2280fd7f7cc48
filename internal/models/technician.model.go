package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var SubmitCodePattern = regexp.MustCompile(`^[A-Z]{3,4}-\d{4}$`)

type TechnicianRole string

const (
	TechnicianRoleTechnician TechnicianRole = "technician"
	TechnicianRoleLead       TechnicianRole = "lead"
	TechnicianRoleApprentice TechnicianRole = "apprentice"
)

type InviteStatus string

const (
	InviteStatusNone     InviteStatus = "none"
	InviteStatusInvited  InviteStatus = "invited"
	InviteStatusAccepted InviteStatus = "accepted"
)

type Technician struct {
	BaseUUIDModel
	FranchiseeID     uuid.UUID                   `gorm:"type:uuid;not null;index"                 json:"franchiseeId"`
	UserID           *uuid.UUID                  `gorm:"type:uuid;index"                          json:"userId,omitempty"`
	Name             string                      `gorm:"type:text;not null"                       json:"name"`
	Email            string                      `gorm:"type:text"                                json:"email"`
	Phone            string                      `gorm:"type:text"                                json:"phone"`
	Role             TechnicianRole              `gorm:"type:text;default:'technician'"           json:"role"`
	SubmitCode       string                      `gorm:"type:text;uniqueIndex"                    json:"submitCode"`
	IsActive         bool                        `gorm:"type:bool;default:true"                   json:"isActive"`
	Rating           decimal.Decimal             `gorm:"type:decimal(3,2);default:0"              json:"rating"`
	Specialties      datatypes.JSONSlice[string] `gorm:"type:jsonb"                               json:"specialties"`
	InviteStatus     InviteStatus                `gorm:"type:text;default:'none'"                 json:"inviteStatus"`
	InvitedAt        *time.Time                  `gorm:"type:timestamp"                           json:"invitedAt,omitempty"`
	LastSubmissionAt *time.Time                  `gorm:"type:timestamp"                           json:"lastSubmissionAt,omitempty"`

	Franchisee *Franchisee `gorm:"foreignKey:FranchiseeID" json:"franchisee,omitempty"`
}

func (t *Technician) BeforeCreate(tx *gorm.DB) error {
	if err := t.assignID(); err != nil {
		return err
	}

	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" || t.FranchiseeID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if t.Role == "" {
		t.Role = TechnicianRoleTechnician
	}
	if t.InviteStatus == "" {
		t.InviteStatus = InviteStatusNone
	}
	if t.SubmitCode != "" && !SubmitCodePattern.MatchString(t.SubmitCode) {
		return gorm.ErrInvalidValue
	}
	return nil
}

// PhoneSuffix returns the last n digits of the phone number, ignoring formatting.
func (t *Technician) PhoneSuffix(n int) string {
	var digits strings.Builder
	for _, r := range t.Phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < n {
		return ""
	}
	return d[len(d)-n:]
}

// NormalizeSubmitCode trims and uppercases a technician-entered code.
func NormalizeSubmitCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func FormatSubmitCode(prefix string, number int) string {
	return fmt.Sprintf("%s-%04d", strings.ToUpper(prefix), number%10000)
}
