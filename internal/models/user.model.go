package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleFranchisee UserRole = "franchisee"
	RoleTechnician UserRole = "technician"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleFranchisee, RoleTechnician:
		return true
	}
	return false
}

type User struct {
	BaseUUIDModel
	AuthUserID   string     `gorm:"column:auth_user_id;type:text;uniqueIndex;not null" json:"authUserId"`
	Email        *string    `gorm:"type:text;uniqueIndex"                              json:"email"`
	FullName     string     `gorm:"type:text"                                          json:"fullName"`
	Phone        string     `gorm:"type:text"                                          json:"phone"`
	AvatarURL    string     `gorm:"type:text"                                          json:"avatarUrl"`
	Role         UserRole   `gorm:"type:text;not null;default:'technician'"            json:"role"`
	FranchiseeID *uuid.UUID `gorm:"type:uuid;index"                                    json:"franchiseeId,omitempty"`
	TechnicianID *uuid.UUID `gorm:"type:uuid;index"                                    json:"technicianId,omitempty"`
	IsActive     bool       `gorm:"type:bool;default:true"                             json:"isActive"`
	LastLoginAt  *time.Time `gorm:"type:timestamp"                                     json:"lastLoginAt,omitempty"`

	Preferences datatypes.JSONType[Preferences] `gorm:"type:jsonb" json:"preferences"`
}

// Preferences replaces the dashboard's ambient theme, logo and table-style state.
type Preferences struct {
	Theme      string `json:"theme,omitempty"`
	LogoURL    string `json:"logoUrl,omitempty"`
	TableStyle string `json:"tableStyle,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if err := u.assignID(); err != nil {
		return err
	}

	u.FullName = strings.TrimSpace(u.FullName)
	if u.Role == "" {
		u.Role = RoleTechnician
	}
	if !u.Role.IsValid() {
		return gorm.ErrInvalidValue
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) HasRole(roles ...UserRole) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// CanAccessFranchise reports whether the user may read or act on data of the franchise.
func (u *User) CanAccessFranchise(franchiseeID uuid.UUID) bool {
	if u.IsAdmin() {
		return true
	}
	return u.FranchiseeID != nil && *u.FranchiseeID == franchiseeID
}

// FranchiseFor picks the franchise a request acts on. Admins must name one;
// other roles are pinned to their own and may not name another.
func (u *User) FranchiseFor(requested *uuid.UUID) (uuid.UUID, bool) {
	if u.IsAdmin() {
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, false
		}
		return *requested, true
	}
	if u.FranchiseeID == nil {
		return uuid.Nil, false
	}
	if requested != nil && *requested != uuid.Nil && *requested != *u.FranchiseeID {
		return uuid.Nil, false
	}
	return *u.FranchiseeID, true
}

type Profile struct {
	ID           uuid.UUID   `json:"id"`
	Email        *string     `json:"email"`
	FullName     string      `json:"fullName"`
	Phone        string      `json:"phone"`
	AvatarURL    string      `json:"avatarUrl"`
	Role         UserRole    `json:"role"`
	FranchiseeID *uuid.UUID  `json:"franchiseeId,omitempty"`
	TechnicianID *uuid.UUID  `json:"technicianId,omitempty"`
	Preferences  Preferences `json:"preferences"`
	LastLoginAt  *time.Time  `json:"lastLoginAt,omitempty"`
}

func (u *User) ToProfile() Profile {
	return Profile{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Phone:        u.Phone,
		AvatarURL:    u.AvatarURL,
		Role:         u.Role,
		FranchiseeID: u.FranchiseeID,
		TechnicianID: u.TechnicianID,
		Preferences:  u.Preferences.Data(),
		LastLoginAt:  u.LastLoginAt,
	}
}
