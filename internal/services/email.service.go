package services

import (
	"context"
	"fmt"
	"palcontent/config"
	"palcontent/internal/types"
	"palcontent/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"gopkg.in/mail.v2"
)

type EmailMessage struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type mailDialer interface {
	DialAndSend(m ...*mail.Message) error
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailService sends transactional mail over SMTP or SES.
type EmailService struct {
	log      logger.Logger
	provider string
	from     string
	dialer   mailDialer
	ses      sesAPI
}

func NewEmailService(ctx context.Context, cfg config.Config) (*EmailService, error) {
	log := logger.New("EmailService").Function("NewEmailService")

	service := &EmailService{
		log:      logger.New("EmailService"),
		provider: cfg.EmailProvider,
		from:     cfg.EmailFrom,
	}

	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, log.Err("failed to load AWS configuration", err)
		}
		service.ses = ses.NewFromConfig(awsCfg)
	default:
		if cfg.SMTPHost != "" {
			service.dialer = mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		}
	}

	log.Info("Email service initialized", "provider", service.provider, "configured", service.IsConfigured())
	return service, nil
}

func (s *EmailService) IsConfigured() bool {
	return s.from != "" && (s.dialer != nil || s.ses != nil)
}

// Send delivers the message and returns the provider message id when one exists.
func (s *EmailService) Send(ctx context.Context, message EmailMessage) (string, error) {
	log := s.log.TraceFromContext(ctx).Function("Send")

	if !utils.IsValidEmail(message.To) {
		return "", log.Err("invalid recipient email", types.ErrValidation, "to", message.To)
	}
	if !s.IsConfigured() {
		return "", log.Err("email delivery is not configured", types.ErrNotConfigured)
	}

	if s.ses != nil {
		return s.sendSES(ctx, message)
	}
	return "", s.sendSMTP(ctx, message)
}

func (s *EmailService) sendSMTP(ctx context.Context, message EmailMessage) error {
	log := s.log.TraceFromContext(ctx).Function("sendSMTP")

	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", message.To)
	m.SetHeader("Subject", message.Subject)
	m.SetBody("text/plain", message.TextBody)
	if message.HTMLBody != "" {
		m.AddAlternative("text/html", message.HTMLBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return log.Err("failed to send email via SMTP", fmt.Errorf("%w: %w", types.ErrUpstream, err))
	}

	log.Info("email sent", "provider", "smtp")
	return nil
}

func (s *EmailService) sendSES(ctx context.Context, message EmailMessage) (string, error) {
	log := s.log.TraceFromContext(ctx).Function("sendSES")

	body := &sestypes.Body{
		Text: &sestypes.Content{Data: aws.String(message.TextBody)},
	}
	if message.HTMLBody != "" {
		body.Html = &sestypes.Content{Data: aws.String(message.HTMLBody)}
	}

	output, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{ToAddresses: []string{message.To}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(message.Subject)},
			Body:    body,
		},
		Source: aws.String(s.from),
	})
	if err != nil {
		return "", log.Err("failed to send email via SES", fmt.Errorf("%w: %w", types.ErrUpstream, err))
	}

	messageID := aws.ToString(output.MessageId)
	log.Info("email sent", "provider", "ses", "messageID", messageID)
	return messageID, nil
}
