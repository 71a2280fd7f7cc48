package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(555) 123-4567", "+15551234567"},
		{"1-555-123-4567", "+15551234567"},
		{"+44 20 7946 0958", "+442079460958"},
		{"  ", ""},
		{"12345", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("(555) 123-4567"))
	assert.True(t, IsValidPhone("+442079460958"))
	assert.False(t, IsValidPhone("12345"))
	assert.False(t, IsValidPhone(""))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("owner@example.com"))
	assert.False(t, IsValidEmail("owner@"))
	assert.False(t, IsValidEmail(""))
}

type sample struct {
	Name    string `validate:"required"`
	Email   string `validate:"omitempty,email"`
	Rating  int    `validate:"min=1,max=5"`
	Channel string `validate:"oneof=sms email"`
}

func TestValidateStruct(t *testing.T) {
	assert.Empty(t, ValidateStruct(sample{Name: "Sam", Rating: 5, Channel: "sms"}))

	details := ValidateStruct(sample{Email: "nope", Rating: 9, Channel: "fax"})
	assert.ElementsMatch(t, []string{
		"name is required",
		"email must be a valid email address",
		"rating must be at most 5",
		"channel must be one of: sms email",
	}, details)
}

func TestTruncateAndClean(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "hi", Truncate("hi", 10))
	assert.Equal(t, "", Truncate("hi", 0))

	cleaned, changed := CleanUTF8("ok\x00")
	assert.True(t, changed)
	assert.Equal(t, "ok", cleaned)
}

func TestSecretsEqual(t *testing.T) {
	assert.True(t, SecretsEqual("s3cret", "s3cret"))
	assert.False(t, SecretsEqual("s3cret", "other"))
	assert.False(t, SecretsEqual("", ""))
	assert.Len(t, HashToken("token"), 64)
}
