package types

import (
	"errors"
	"strings"
)

// Domain errors mapped to HTTP statuses by the handlers.
var (
	ErrNotFound          = errors.New("not found or not owned by user")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidCode       = errors.New("invalid submit code format")
	ErrApprovedDelete    = errors.New("approved submissions cannot be deleted")
	ErrNotConfigured     = errors.New("provider not configured")
	ErrUpstream          = errors.New("upstream provider failed")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrUnsupportedUpload = errors.New("unsupported upload")
)

// FieldError is a validation failure with one message per offending field.
type FieldError struct {
	Details []string
}

func NewFieldError(details ...string) *FieldError {
	return &FieldError{Details: details}
}

func (e *FieldError) Error() string {
	if len(e.Details) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Details, "; ")
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}
