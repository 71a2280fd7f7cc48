package services

import (
	"bytes"
	"context"
	"errors"
	"palcontent/config"
	"palcontent/internal/types"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mail.v2"
)

type mockDialer struct {
	DialAndSendFunc func(m ...*mail.Message) error
}

func (m *mockDialer) DialAndSend(messages ...*mail.Message) error {
	return m.DialAndSendFunc(messages...)
}

type mockSESAPI struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *mockSESAPI) SendEmail(
	ctx context.Context,
	params *ses.SendEmailInput,
	optFns ...func(*ses.Options),
) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

func TestEmailService_SendSMTP(t *testing.T) {
	service, err := NewEmailService(context.Background(), config.Config{
		EmailProvider: "smtp",
		EmailFrom:     "reviews@pal.example.com",
		SMTPHost:      "smtp.example.com",
		SMTPPort:      587,
	})
	require.NoError(t, err)

	var rendered string
	service.dialer = &mockDialer{DialAndSendFunc: func(messages ...*mail.Message) error {
		require.Len(t, messages, 1)
		var buf bytes.Buffer
		_, err := messages[0].WriteTo(&buf)
		require.NoError(t, err)
		rendered = buf.String()
		return nil
	}}

	_, err = service.Send(context.Background(), EmailMessage{
		To:       "customer@example.com",
		Subject:  "How did we do?",
		TextBody: "Leave us a review",
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(rendered, "To: customer@example.com"))
	assert.True(t, strings.Contains(rendered, "Subject: How did we do?"))
}

func TestEmailService_SendSES(t *testing.T) {
	service, err := NewEmailService(context.Background(), config.Config{
		EmailProvider: "smtp",
		EmailFrom:     "reviews@pal.example.com",
	})
	require.NoError(t, err)
	service.ses = &mockSESAPI{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		assert.Equal(t, []string{"customer@example.com"}, params.Destination.ToAddresses)
		assert.Equal(t, "reviews@pal.example.com", aws.ToString(params.Source))
		assert.NotNil(t, params.Message.Body.Html)
		return &ses.SendEmailOutput{MessageId: aws.String("ses-42")}, nil
	}}

	id, err := service.Send(context.Background(), EmailMessage{
		To:       "customer@example.com",
		Subject:  "How did we do?",
		TextBody: "Leave us a review",
		HTMLBody: "<p>Leave us a review</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-42", id)
}

func TestEmailService_Failures(t *testing.T) {
	service, err := NewEmailService(context.Background(), config.Config{EmailProvider: "smtp"})
	require.NoError(t, err)
	assert.False(t, service.IsConfigured())

	_, err = service.Send(context.Background(), EmailMessage{To: "not-an-email"})
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = service.Send(context.Background(), EmailMessage{To: "customer@example.com"})
	assert.True(t, errors.Is(err, types.ErrNotConfigured))

	service.from = "reviews@pal.example.com"
	service.dialer = &mockDialer{DialAndSendFunc: func(messages ...*mail.Message) error {
		return errors.New("535 authentication failed")
	}}
	_, err = service.Send(context.Background(), EmailMessage{To: "customer@example.com"})
	assert.True(t, errors.Is(err, types.ErrUpstream))
}
