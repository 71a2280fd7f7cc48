package models

import (
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var codePrefixPattern = regexp.MustCompile(`^[A-Z]{3,4}$`)

type Franchisee struct {
	BaseUUIDModel
	BusinessName    string `gorm:"type:text;not null"        json:"businessName"`
	OwnerName       string `gorm:"type:text"                 json:"ownerName"`
	Email           string `gorm:"type:text"                 json:"email"`
	Phone           string `gorm:"type:text"                 json:"phone"`
	CodePrefix      string `gorm:"type:text;uniqueIndex"     json:"codePrefix"`
	GoogleReviewURL string `gorm:"type:text"                 json:"googleReviewUrl"`
	Territory       string `gorm:"type:text"                 json:"territory"`
	LogoURL         string `gorm:"type:text"                 json:"logoUrl"`
	IsActive        bool   `gorm:"type:bool;default:true"    json:"isActive"`

	Technicians []Technician `gorm:"foreignKey:FranchiseeID" json:"technicians,omitempty"`
}

func (f *Franchisee) BeforeCreate(tx *gorm.DB) error {
	if err := f.assignID(); err != nil {
		return err
	}

	f.CodePrefix = strings.ToUpper(strings.TrimSpace(f.CodePrefix))
	if f.BusinessName == "" || !codePrefixPattern.MatchString(f.CodePrefix) {
		return gorm.ErrInvalidValue
	}
	return nil
}
