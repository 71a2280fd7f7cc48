package services

import (
	"context"
	"fmt"
	"palcontent/config"
	"palcontent/internal/metrics"
	"palcontent/internal/models"
	"palcontent/internal/types"
	"palcontent/internal/utils"
	"strings"
	"sync"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const maxSMSLength = 1600

type SMSResult struct {
	MessageID string                `json:"messageId"`
	Status    models.DeliveryStatus `json:"status"`
}

// SMSSender delivers one text message through a concrete provider.
type SMSSender interface {
	Name() string
	Send(ctx context.Context, to string, body string) (SMSResult, error)
	Verify(ctx context.Context) error
}

type twilioAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
	FetchAccount(sid string) (*openapi.ApiV2010Account, error)
}

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type twilioSender struct {
	api        twilioAPI
	accountSID string
	from       string
}

func (t *twilioSender) Name() string { return string(models.SMSProviderTwilio) }

func (t *twilioSender) Send(ctx context.Context, to string, body string) (SMSResult, error) {
	if err := ctx.Err(); err != nil {
		return SMSResult{}, err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	message, err := t.api.CreateMessage(params)
	if err != nil {
		return SMSResult{Status: models.DeliveryStatusFailed}, fmt.Errorf("%w: %w", types.ErrUpstream, err)
	}

	result := SMSResult{Status: models.DeliveryStatusAccepted}
	if message.Sid != nil {
		result.MessageID = *message.Sid
	}
	if message.Status != nil {
		result.Status = twilioDeliveryStatus(*message.Status)
	}
	return result, nil
}

func (t *twilioSender) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	account, err := t.api.FetchAccount(t.accountSID)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrUpstream, err)
	}
	if account.Status != nil && *account.Status != "active" {
		return fmt.Errorf("%w: twilio account is %s", types.ErrUpstream, *account.Status)
	}
	return nil
}

// twilioDeliveryStatus folds Twilio's message states onto accepted / delivered / failed.
func twilioDeliveryStatus(status string) models.DeliveryStatus {
	switch strings.ToLower(status) {
	case "delivered", "read":
		return models.DeliveryStatusDelivered
	case "failed", "undelivered", "canceled":
		return models.DeliveryStatusFailed
	default:
		return models.DeliveryStatusAccepted
	}
}

type snsSender struct {
	api snsAPI
}

func (s *snsSender) Name() string { return string(models.SMSProviderSNS) }

func (s *snsSender) Send(ctx context.Context, to string, body string) (SMSResult, error) {
	output, err := s.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(body),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	})
	if err != nil {
		return SMSResult{Status: models.DeliveryStatusFailed}, fmt.Errorf("%w: %w", types.ErrUpstream, err)
	}

	return SMSResult{MessageID: aws.ToString(output.MessageId), Status: models.DeliveryStatusAccepted}, nil
}

// Verify is a no-op for SNS: credentials come from the runtime environment.
func (s *snsSender) Verify(ctx context.Context) error {
	return ctx.Err()
}

// SMSService resolves the sender for a franchisee and dispatches through it.
type SMSService struct {
	log logger.Logger
	cfg config.Config

	newTwilio func(accountSID, authToken string) twilioAPI
	newSNS    func(ctx context.Context) (snsAPI, error)

	snsOnce   sync.Once
	snsClient snsAPI
	snsErr    error
}

func NewSMSService(cfg config.Config) *SMSService {
	return &SMSService{
		log: logger.New("SMSService"),
		cfg: cfg,
		newTwilio: func(accountSID, authToken string) twilioAPI {
			client := twilio.NewRestClientWithParams(twilio.ClientParams{
				Username: accountSID,
				Password: authToken,
			})
			return client.Api
		},
		newSNS: func(ctx context.Context) (snsAPI, error) {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
			if err != nil {
				return nil, err
			}
			return sns.NewFromConfig(awsCfg), nil
		},
	}
}

// SenderFor returns the provider for the franchisee config. A missing or
// disabled config falls back to the platform Twilio account when one is set.
func (s *SMSService) SenderFor(ctx context.Context, smsConfig *models.SMSConfig) (SMSSender, error) {
	log := s.log.Function("SenderFor")

	if smsConfig != nil && smsConfig.IsConfigured() {
		switch smsConfig.Provider {
		case models.SMSProviderTwilio:
			return &twilioSender{
				api:        s.newTwilio(smsConfig.AccountSID, smsConfig.AuthToken),
				accountSID: smsConfig.AccountSID,
				from:       smsConfig.FromNumber,
			}, nil
		case models.SMSProviderSNS:
			return s.snsSender(ctx)
		default:
			return nil, log.Err("unsupported SMS provider", types.ErrNotConfigured, "provider", smsConfig.Provider)
		}
	}

	if s.cfg.SMSDefaultProvider == string(models.SMSProviderSNS) {
		return s.snsSender(ctx)
	}

	if s.cfg.TwilioAccountSID != "" && s.cfg.TwilioAuthToken != "" && s.cfg.TwilioFromNumber != "" {
		return &twilioSender{
			api:        s.newTwilio(s.cfg.TwilioAccountSID, s.cfg.TwilioAuthToken),
			accountSID: s.cfg.TwilioAccountSID,
			from:       s.cfg.TwilioFromNumber,
		}, nil
	}

	return nil, log.Err("no SMS provider configured", types.ErrNotConfigured)
}

func (s *SMSService) snsSender(ctx context.Context) (SMSSender, error) {
	s.snsOnce.Do(func() {
		s.snsClient, s.snsErr = s.newSNS(ctx)
	})
	if s.snsErr != nil {
		return nil, s.log.Function("snsSender").
			Err("failed to load AWS configuration", fmt.Errorf("%w: %w", types.ErrNotConfigured, s.snsErr))
	}
	return &snsSender{api: s.snsClient}, nil
}

// Send normalizes the destination, dispatches the message and records the outcome.
func (s *SMSService) Send(
	ctx context.Context,
	smsConfig *models.SMSConfig,
	to string,
	body string,
) (SMSResult, error) {
	log := s.log.TraceFromContext(ctx).Function("Send")

	destination := utils.NormalizePhone(to)
	if !utils.IsValidPhone(destination) {
		return SMSResult{}, log.Err("invalid destination phone number", types.ErrValidation, "to", to)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return SMSResult{}, log.Err("message body is required", types.ErrValidation)
	}
	body = utils.Truncate(body, maxSMSLength)

	sender, err := s.SenderFor(ctx, smsConfig)
	if err != nil {
		return SMSResult{}, err
	}

	result, err := sender.Send(ctx, destination, body)
	if err != nil {
		metrics.SMSSent.WithLabelValues(sender.Name(), string(models.DeliveryStatusFailed)).Inc()
		return result, log.Err("failed to send SMS", err, "provider", sender.Name())
	}

	metrics.SMSSent.WithLabelValues(sender.Name(), string(result.Status)).Inc()
	log.Info("SMS dispatched", "provider", sender.Name(), "messageID", result.MessageID, "status", result.Status)
	return result, nil
}

// Verify checks the franchisee's credentials against the provider.
func (s *SMSService) Verify(ctx context.Context, smsConfig *models.SMSConfig) error {
	log := s.log.TraceFromContext(ctx).Function("Verify")

	sender, err := s.SenderFor(ctx, smsConfig)
	if err != nil {
		return err
	}

	if err := sender.Verify(ctx); err != nil {
		return log.Err("SMS credential verification failed", err, "provider", sender.Name())
	}
	return nil
}
