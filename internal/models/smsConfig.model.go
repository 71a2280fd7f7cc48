package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SMSProvider string

const (
	SMSProviderTwilio SMSProvider = "twilio"
	SMSProviderSNS    SMSProvider = "sns"
)

const (
	TemplateSubmissionReceived = "submission_received"
	TemplateSubmissionApproved = "submission_approved"
	TemplateReviewRequest      = "review_request"
	TemplateTest               = "test"
)

var DefaultSMSTemplates = map[string]string{
	TemplateSubmissionReceived: "New {{category}} job from {{technician}} is waiting for review.",
	TemplateSubmissionApproved: "Nice work {{technician}}! Your {{serviceType}} job was approved.",
	TemplateReviewRequest:      "Hi {{customer}}, thanks for choosing {{business}}. We'd love your feedback: {{link}}",
	TemplateTest:               "Test message from {{business}}.",
}

type SMSConfig struct {
	BaseUUIDModel
	FranchiseeID       uuid.UUID                           `gorm:"type:uuid;not null;uniqueIndex" json:"franchiseeId"`
	Provider           SMSProvider                         `gorm:"type:text;default:'twilio'"     json:"provider"`
	AccountSID         string                              `gorm:"type:text"                      json:"accountSid"`
	AuthToken          string                              `gorm:"type:text"                      json:"-"`
	FromNumber         string                              `gorm:"type:text"                      json:"fromNumber"`
	Enabled            bool                                `gorm:"type:bool;default:false"        json:"enabled"`
	NotifyOnSubmission bool                                `gorm:"type:bool;default:false"        json:"notifyOnSubmission"`
	NotifyOnApproval   bool                                `gorm:"type:bool;default:false"        json:"notifyOnApproval"`
	Templates          datatypes.JSONType[map[string]string] `gorm:"type:jsonb"                     json:"templates"`
}

func (s *SMSConfig) BeforeCreate(tx *gorm.DB) error {
	if err := s.assignID(); err != nil {
		return err
	}
	if s.Provider == "" {
		s.Provider = SMSProviderTwilio
	}
	return nil
}

// Template returns the franchisee override for name, falling back to the default.
func (s *SMSConfig) Template(name string) string {
	if tpl, ok := s.Templates.Data()[name]; ok && tpl != "" {
		return tpl
	}
	return DefaultSMSTemplates[name]
}

func (s *SMSConfig) IsConfigured() bool {
	if !s.Enabled {
		return false
	}
	if s.Provider == SMSProviderTwilio {
		return s.AccountSID != "" && s.AuthToken != "" && s.FromNumber != ""
	}
	return true
}

// MaskedAuthToken exposes only the last four characters of the token.
func (s *SMSConfig) MaskedAuthToken() string {
	if len(s.AuthToken) <= 4 {
		return strings.Repeat("•", len(s.AuthToken))
	}
	return strings.Repeat("•", len(s.AuthToken)-4) + s.AuthToken[len(s.AuthToken)-4:]
}

// RenderTemplate replaces {{placeholder}} tokens with values from vars.
func RenderTemplate(template string, vars map[string]string) string {
	result := template
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}
