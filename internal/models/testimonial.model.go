package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TestimonialStatus string

const (
	TestimonialStatusPending   TestimonialStatus = "pending"
	TestimonialStatusPublished TestimonialStatus = "published"
	TestimonialStatusHidden    TestimonialStatus = "hidden"
)

type Testimonial struct {
	BaseUUIDModel
	FranchiseeID       uuid.UUID         `gorm:"type:uuid;not null;index"    json:"franchiseeId"`
	TechnicianID       *uuid.UUID        `gorm:"type:uuid;index"             json:"technicianId,omitempty"`
	JobSubmissionID    *uuid.UUID        `gorm:"type:uuid"                   json:"jobSubmissionId,omitempty"`
	CustomerName       string            `gorm:"type:text;not null"          json:"customerName"`
	CustomerEmail      string            `gorm:"type:text"                   json:"customerEmail,omitempty"`
	Rating             int               `gorm:"type:int;not null"           json:"rating"`
	Comment            string            `gorm:"type:text"                   json:"comment"`
	Status             TestimonialStatus `gorm:"type:text;default:'pending'" json:"status"`
	RedirectedToGoogle bool              `gorm:"type:bool;default:false"     json:"redirectedToGoogle"`
}

func (t *Testimonial) BeforeCreate(tx *gorm.DB) error {
	if err := t.assignID(); err != nil {
		return err
	}
	if t.Rating < 1 || t.Rating > 5 || t.CustomerName == "" {
		return gorm.ErrInvalidValue
	}
	if t.Status == "" {
		t.Status = TestimonialStatusPending
	}
	return nil
}

type ReviewChannel string

const (
	ReviewChannelSMS   ReviewChannel = "sms"
	ReviewChannelEmail ReviewChannel = "email"
)

// DeliveryStatus separates "handed to the provider" from "provider confirmed".
type DeliveryStatus string

const (
	DeliveryStatusAccepted  DeliveryStatus = "accepted"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

type ReviewRequest struct {
	BaseUUIDModel
	FranchiseeID      uuid.UUID      `gorm:"type:uuid;not null;index"     json:"franchiseeId"`
	JobSubmissionID   *uuid.UUID     `gorm:"type:uuid"                    json:"jobSubmissionId,omitempty"`
	RequestedBy       uuid.UUID      `gorm:"type:uuid"                    json:"requestedBy"`
	CustomerName      string         `gorm:"type:text"                    json:"customerName"`
	Channel           ReviewChannel  `gorm:"type:text;not null"           json:"channel"`
	Destination       string         `gorm:"type:text;not null"           json:"destination"`
	Token             string         `gorm:"type:text;uniqueIndex"        json:"token"`
	DeliveryStatus    DeliveryStatus `gorm:"type:text;default:'accepted'" json:"deliveryStatus"`
	ProviderMessageID string         `gorm:"type:text"                    json:"providerMessageId,omitempty"`
	DeliveryError     string         `gorm:"type:text"                    json:"deliveryError,omitempty"`
	ClickedAt         *time.Time     `gorm:"type:timestamp"               json:"clickedAt,omitempty"`
	ClickCount        int            `gorm:"type:int;default:0"           json:"clickCount"`
}

func (r *ReviewRequest) BeforeCreate(tx *gorm.DB) error {
	if err := r.assignID(); err != nil {
		return err
	}
	if r.Token == "" {
		token, err := NewReviewToken()
		if err != nil {
			return err
		}
		r.Token = token
	}
	if r.DeliveryStatus == "" {
		r.DeliveryStatus = DeliveryStatusAccepted
	}
	return nil
}

func NewReviewToken() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
