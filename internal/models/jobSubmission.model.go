package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusDenied   SubmissionStatus = "denied"
	SubmissionStatusFlagged  SubmissionStatus = "flagged"
)

var SubmissionStatuses = []SubmissionStatus{
	SubmissionStatusPending,
	SubmissionStatusApproved,
	SubmissionStatusDenied,
	SubmissionStatusFlagged,
}

var ErrInvalidTransition = errors.New("invalid status transition")

var submissionTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionStatusPending:  {SubmissionStatusApproved, SubmissionStatusDenied, SubmissionStatusFlagged},
	SubmissionStatusApproved: {SubmissionStatusFlagged},
}

func (s SubmissionStatus) IsValid() bool {
	return slices.Contains(SubmissionStatuses, s)
}

func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	return slices.Contains(submissionTransitions[s], next)
}

// AllowedTransitions returns the statuses reachable in one step from s.
func (s SubmissionStatus) AllowedTransitions() []SubmissionStatus {
	return slices.Clone(submissionTransitions[s])
}

func ValidateTransition(from, to SubmissionStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

type ServiceCategory string

const (
	CategoryResidential ServiceCategory = "Residential"
	CategoryAutomotive  ServiceCategory = "Automotive"
	CategoryCommercial  ServiceCategory = "Commercial"
	CategoryRoadside    ServiceCategory = "Roadside"
)

var ServiceTypes = map[ServiceCategory][]string{
	CategoryResidential: {
		"Lock Installation", "Lock Repair", "Rekey", "Lockout", "Smart Lock Installation",
		"Deadbolt Installation", "Safe Service", "Master Key System",
	},
	CategoryAutomotive: {
		"Car Lockout", "Key Duplication", "Key Fob Programming", "Transponder Key",
		"Ignition Repair", "Broken Key Extraction",
	},
	CategoryCommercial: {
		"Access Control", "Master Key System", "Panic Bar Installation", "Commercial Lockout",
		"High Security Locks", "Door Closer Installation",
	},
	CategoryRoadside: {
		"Emergency Lockout", "Key Replacement", "Trunk Lockout", "Jump Start Assist",
	},
}

func (c ServiceCategory) IsValid() bool {
	_, ok := ServiceTypes[c]
	return ok
}

func (c ServiceCategory) HasServiceType(serviceType string) bool {
	return slices.Contains(ServiceTypes[c], serviceType)
}

type PhotoType string

const (
	PhotoTypeBefore  PhotoType = "before"
	PhotoTypeAfter   PhotoType = "after"
	PhotoTypeProcess PhotoType = "process"
)

type SubmissionClient struct {
	Name             string `gorm:"type:text"              json:"name,omitempty"`
	Phone            string `gorm:"type:text"              json:"phone,omitempty"`
	Email            string `gorm:"type:text"              json:"email,omitempty"`
	ConsentToContact bool   `gorm:"type:bool;default:false" json:"consentToContact"`
	ConsentToShare   bool   `gorm:"type:bool;default:false" json:"consentToShare"`
}

type SubmissionService struct {
	Category     ServiceCategory `gorm:"type:text;not null;index" json:"category"`
	Type         string          `gorm:"type:text;not null"       json:"type"`
	Location     string          `gorm:"type:text"                json:"location"`
	Date         *time.Time      `gorm:"type:timestamp"           json:"date,omitempty"`
	Duration     int             `gorm:"type:int;default:0"       json:"duration"`
	Satisfaction int             `gorm:"type:int;default:0"       json:"satisfaction"`
	Description  string          `gorm:"type:text"                json:"description"`
}

type SubmissionMedia struct {
	BeforePhotos  datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"beforePhotos"`
	AfterPhotos   datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"afterPhotos"`
	ProcessPhotos datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"processPhotos"`
}

func (m SubmissionMedia) Count() int {
	return len(m.BeforePhotos) + len(m.AfterPhotos) + len(m.ProcessPhotos)
}

func (m SubmissionMedia) All() []string {
	all := make([]string, 0, m.Count())
	all = append(all, m.BeforePhotos...)
	all = append(all, m.AfterPhotos...)
	all = append(all, m.ProcessPhotos...)
	return all
}

func (m *SubmissionMedia) Add(photoType PhotoType, url string) {
	switch photoType {
	case PhotoTypeBefore:
		m.BeforePhotos = append(m.BeforePhotos, url)
	case PhotoTypeAfter:
		m.AfterPhotos = append(m.AfterPhotos, url)
	default:
		m.ProcessPhotos = append(m.ProcessPhotos, url)
	}
}

type SubmissionVehicle struct {
	Year  string `gorm:"type:text" json:"year,omitempty"`
	Make  string `gorm:"type:text" json:"make,omitempty"`
	Model string `gorm:"type:text" json:"model,omitempty"`
	Color string `gorm:"type:text" json:"color,omitempty"`
	VIN   string `gorm:"type:text" json:"vin,omitempty"`
}

func (v SubmissionVehicle) IsEmpty() bool {
	return v == SubmissionVehicle{}
}

type SubmissionContent struct {
	CustomerConcern   string `gorm:"type:text" json:"customerConcern,omitempty"`
	CustomerReaction  string `gorm:"type:text" json:"customerReaction,omitempty"`
	SpecialChallenges string `gorm:"type:text" json:"specialChallenges,omitempty"`
}

type JobSubmission struct {
	BaseUUIDModel
	TechnicianID uuid.UUID `gorm:"type:uuid;not null;index" json:"technicianId"`
	FranchiseeID uuid.UUID `gorm:"type:uuid;not null;index" json:"franchiseeId"`

	Client        SubmissionClient  `gorm:"embedded;embeddedPrefix:client_"  json:"client"`
	Service       SubmissionService `gorm:"embedded;embeddedPrefix:service_" json:"service"`
	Media         SubmissionMedia   `gorm:"embedded;embeddedPrefix:media_"   json:"media"`
	Vehicle       SubmissionVehicle `gorm:"embedded;embeddedPrefix:vehicle_" json:"vehicle"`
	ContentFields SubmissionContent `gorm:"embedded;embeddedPrefix:content_" json:"contentFields"`

	Status      SubmissionStatus `gorm:"type:text;not null;default:'pending';index" json:"status"`
	ReviewNotes *string          `gorm:"type:text"                                  json:"reviewNotes,omitempty"`
	ReviewedAt  *time.Time       `gorm:"type:timestamp"                             json:"reviewedAt,omitempty"`
	ReviewedBy  *uuid.UUID       `gorm:"type:uuid"                                  json:"reviewedBy,omitempty"`
	Archived    bool             `gorm:"type:bool;default:false;index"              json:"archived"`

	AIReport            *string    `gorm:"column:ai_report;type:text"                json:"aiReport,omitempty"`
	AIReportGeneratedAt *time.Time `gorm:"column:ai_report_generated_at;type:timestamp" json:"aiReportGeneratedAt,omitempty"`

	Tags        datatypes.JSONSlice[string] `gorm:"type:jsonb"              json:"tags"`
	SubmittedAt time.Time                   `gorm:"type:timestamp;not null" json:"submittedAt"`

	Technician *Technician `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
}

func (j *JobSubmission) BeforeCreate(tx *gorm.DB) error {
	if err := j.assignID(); err != nil {
		return err
	}

	if j.TechnicianID == uuid.Nil || j.FranchiseeID == uuid.Nil || !j.Service.Category.IsValid() {
		return gorm.ErrInvalidValue
	}
	if j.Status == "" {
		j.Status = SubmissionStatusPending
	}
	if j.SubmittedAt.IsZero() {
		j.SubmittedAt = time.Now().UTC()
	}
	return nil
}

func (j *JobSubmission) HasPhotos() bool {
	return j.Media.Count() > 0
}

func (j *JobSubmission) HasAIReport() bool {
	return j.AIReport != nil && strings.TrimSpace(*j.AIReport) != ""
}

// CanBeDeletedBy reports whether the user may hard-delete the submission.
// Technicians lose that right once a submission is approved.
func (j *JobSubmission) CanBeDeletedBy(user *User) bool {
	if user.Role == RoleTechnician && j.Status == SubmissionStatusApproved {
		return false
	}
	return true
}
