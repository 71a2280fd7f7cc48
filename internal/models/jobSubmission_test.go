package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     SubmissionStatus
		to       SubmissionStatus
		expected bool
	}{
		{SubmissionStatusPending, SubmissionStatusApproved, true},
		{SubmissionStatusPending, SubmissionStatusDenied, true},
		{SubmissionStatusPending, SubmissionStatusFlagged, true},
		{SubmissionStatusPending, SubmissionStatusPending, false},
		{SubmissionStatusApproved, SubmissionStatusFlagged, true},
		{SubmissionStatusApproved, SubmissionStatusDenied, false},
		{SubmissionStatusApproved, SubmissionStatusPending, false},
		{SubmissionStatusDenied, SubmissionStatusPending, false},
		{SubmissionStatusDenied, SubmissionStatusApproved, false},
		{SubmissionStatusFlagged, SubmissionStatusApproved, false},
		{SubmissionStatusFlagged, SubmissionStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	require.NoError(t, ValidateTransition(SubmissionStatusPending, SubmissionStatusApproved))

	err := ValidateTransition(SubmissionStatusDenied, SubmissionStatusApproved)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	err = ValidateTransition(SubmissionStatusPending, SubmissionStatus("archived"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "unknown status")
}

func TestSubmissionStatus_AllowedTransitionsIsACopy(t *testing.T) {
	allowed := SubmissionStatusPending.AllowedTransitions()
	require.Len(t, allowed, 3)

	allowed[0] = SubmissionStatusPending
	assert.True(t, SubmissionStatusPending.CanTransitionTo(SubmissionStatusApproved))
	assert.Empty(t, SubmissionStatusFlagged.AllowedTransitions())
}

func TestServiceCategory_HasServiceType(t *testing.T) {
	assert.True(t, CategoryResidential.HasServiceType("Lock Installation"))
	assert.True(t, CategoryAutomotive.HasServiceType("Key Fob Programming"))
	assert.False(t, CategoryRoadside.HasServiceType("Lock Installation"))
	assert.False(t, ServiceCategory("Marine").IsValid())
}

func TestSubmissionMedia_AddDefaultsToProcess(t *testing.T) {
	var media SubmissionMedia
	media.Add(PhotoTypeBefore, "b.jpg")
	media.Add(PhotoTypeAfter, "a.jpg")
	media.Add("", "p1.jpg")
	media.Add(PhotoType("sideways"), "p2.jpg")

	assert.Equal(t, []string{"b.jpg"}, []string(media.BeforePhotos))
	assert.Equal(t, []string{"a.jpg"}, []string(media.AfterPhotos))
	assert.Equal(t, []string{"p1.jpg", "p2.jpg"}, []string(media.ProcessPhotos))
	assert.Equal(t, 4, media.Count())
	assert.Equal(t, []string{"b.jpg", "a.jpg", "p1.jpg", "p2.jpg"}, media.All())
}

func TestJobSubmission_CanBeDeletedBy(t *testing.T) {
	technician := &User{Role: RoleTechnician}
	franchisee := &User{Role: RoleFranchisee}

	for _, status := range SubmissionStatuses {
		submission := &JobSubmission{Status: status}
		t.Run(string(status), func(t *testing.T) {
			assert.Equal(t, status != SubmissionStatusApproved, submission.CanBeDeletedBy(technician))
			assert.True(t, submission.CanBeDeletedBy(franchisee))
		})
	}
}

func TestJobSubmission_HasAIReport(t *testing.T) {
	blank := "   "
	report := "Replaced the cylinder."

	assert.False(t, (&JobSubmission{}).HasAIReport())
	assert.False(t, (&JobSubmission{AIReport: &blank}).HasAIReport())
	assert.True(t, (&JobSubmission{AIReport: &report}).HasAIReport())
}

func TestTechnician_PhoneSuffix(t *testing.T) {
	tech := &Technician{Phone: "+1 (555) 010-4821"}
	assert.Equal(t, "4821", tech.PhoneSuffix(4))

	short := &Technician{Phone: "12"}
	assert.Equal(t, "", short.PhoneSuffix(4))
}

func TestSubmitCodeHelpers(t *testing.T) {
	assert.Equal(t, "ABC-1234", NormalizeSubmitCode("  abc-1234 "))
	assert.Equal(t, "PAL-0042", FormatSubmitCode("pal", 42))
	assert.True(t, SubmitCodePattern.MatchString(FormatSubmitCode("ABCD", 12345)))
}

func TestSMSConfig_TemplatesAndMasking(t *testing.T) {
	cfg := &SMSConfig{AuthToken: "secret-token-9876"}
	assert.Equal(t, DefaultSMSTemplates[TemplateTest], cfg.Template(TemplateTest))
	assert.Equal(t, strings.Repeat("•", 13)+"9876", cfg.MaskedAuthToken())

	rendered := RenderTemplate("Hi {{customer}}, from {{business}}", map[string]string{
		"customer": "Ana",
		"business": "Pop-A-Lock",
	})
	assert.Equal(t, "Hi Ana, from Pop-A-Lock", rendered)
}

func TestSMSConfig_IsConfigured(t *testing.T) {
	assert.False(t, (&SMSConfig{Provider: SMSProviderTwilio}).IsConfigured())
	assert.False(t, (&SMSConfig{Provider: SMSProviderTwilio, Enabled: true, AccountSID: "AC1"}).IsConfigured())
	assert.True(t, (&SMSConfig{
		Provider:   SMSProviderTwilio,
		Enabled:    true,
		AccountSID: "AC1",
		AuthToken:  "tok",
		FromNumber: "+15550100",
	}).IsConfigured())
	assert.True(t, (&SMSConfig{Provider: SMSProviderSNS, Enabled: true}).IsConfigured())
}
