package services

import (
	"context"
	"errors"
	"palcontent/config"
	"palcontent/internal/models"
	"palcontent/internal/types"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type mockTwilioAPI struct {
	CreateMessageFunc func(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
	FetchAccountFunc  func(sid string) (*openapi.ApiV2010Account, error)
}

func (m *mockTwilioAPI) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	return m.CreateMessageFunc(params)
}

func (m *mockTwilioAPI) FetchAccount(sid string) (*openapi.ApiV2010Account, error) {
	return m.FetchAccountFunc(sid)
}

type mockSNSAPI struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNSAPI) Publish(
	ctx context.Context,
	params *sns.PublishInput,
	optFns ...func(*sns.Options),
) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func newTestSMSService(cfg config.Config, twilioMock *mockTwilioAPI, snsMock *mockSNSAPI) (*SMSService, *[]string) {
	service := NewSMSService(cfg)
	credentials := []string{}
	service.newTwilio = func(accountSID, authToken string) twilioAPI {
		credentials = append(credentials, accountSID+":"+authToken)
		return twilioMock
	}
	service.newSNS = func(ctx context.Context) (snsAPI, error) {
		if snsMock == nil {
			return nil, errors.New("no aws credentials")
		}
		return snsMock, nil
	}
	return service, &credentials
}

func franchiseeTwilioConfig() *models.SMSConfig {
	return &models.SMSConfig{
		Provider:   models.SMSProviderTwilio,
		AccountSID: "AC123",
		AuthToken:  "token-123",
		FromNumber: "+15555550000",
		Enabled:    true,
	}
}

func TestSMSService_SendTwilio(t *testing.T) {
	var captured *openapi.CreateMessageParams
	twilioMock := &mockTwilioAPI{
		CreateMessageFunc: func(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
			captured = params
			return &openapi.ApiV2010Message{Sid: aws.String("SM1"), Status: aws.String("queued")}, nil
		},
	}
	service, credentials := newTestSMSService(config.Config{}, twilioMock, nil)

	result, err := service.Send(context.Background(), franchiseeTwilioConfig(), "(555) 123-4567", "  Job approved  ")
	require.NoError(t, err)

	assert.Equal(t, "SM1", result.MessageID)
	assert.Equal(t, models.DeliveryStatusAccepted, result.Status)
	assert.Equal(t, []string{"AC123:token-123"}, *credentials)
	require.NotNil(t, captured)
	assert.Equal(t, "+15551234567", *captured.To)
	assert.Equal(t, "+15555550000", *captured.From)
	assert.Equal(t, "Job approved", *captured.Body)
}

func TestSMSService_SendValidation(t *testing.T) {
	service, _ := newTestSMSService(config.Config{}, &mockTwilioAPI{}, nil)

	_, err := service.Send(context.Background(), franchiseeTwilioConfig(), "12", "hello")
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = service.Send(context.Background(), franchiseeTwilioConfig(), "+15551234567", "   ")
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestSMSService_SendUpstreamFailure(t *testing.T) {
	twilioMock := &mockTwilioAPI{
		CreateMessageFunc: func(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
			return nil, errors.New("21211 invalid 'To' phone number")
		},
	}
	service, _ := newTestSMSService(config.Config{}, twilioMock, nil)

	result, err := service.Send(context.Background(), franchiseeTwilioConfig(), "+15551234567", "hello")
	assert.True(t, errors.Is(err, types.ErrUpstream))
	assert.Equal(t, models.DeliveryStatusFailed, result.Status)
}

func TestSMSService_SenderFor(t *testing.T) {
	snsMock := &mockSNSAPI{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
		},
	}

	t.Run("disabled config falls back to platform twilio", func(t *testing.T) {
		service, credentials := newTestSMSService(config.Config{
			TwilioAccountSID: "ACPLATFORM",
			TwilioAuthToken:  "platform",
			TwilioFromNumber: "+15555559999",
		}, &mockTwilioAPI{}, nil)

		disabled := franchiseeTwilioConfig()
		disabled.Enabled = false
		sender, err := service.SenderFor(context.Background(), disabled)
		require.NoError(t, err)
		assert.Equal(t, "twilio", sender.Name())
		assert.Equal(t, []string{"ACPLATFORM:platform"}, *credentials)
	})

	t.Run("nothing configured", func(t *testing.T) {
		service, _ := newTestSMSService(config.Config{}, &mockTwilioAPI{}, nil)
		_, err := service.SenderFor(context.Background(), nil)
		assert.True(t, errors.Is(err, types.ErrNotConfigured))
	})

	t.Run("sns provider", func(t *testing.T) {
		service, _ := newTestSMSService(config.Config{}, &mockTwilioAPI{}, snsMock)
		sender, err := service.SenderFor(context.Background(), &models.SMSConfig{
			Provider: models.SMSProviderSNS,
			Enabled:  true,
		})
		require.NoError(t, err)

		result, err := sender.Send(context.Background(), "+15551234567", "hi")
		require.NoError(t, err)
		assert.Equal(t, "sns-1", result.MessageID)
		assert.Equal(t, models.DeliveryStatusAccepted, result.Status)
	})

	t.Run("sns without aws credentials", func(t *testing.T) {
		service, _ := newTestSMSService(config.Config{SMSDefaultProvider: "sns"}, &mockTwilioAPI{}, nil)
		_, err := service.SenderFor(context.Background(), nil)
		assert.True(t, errors.Is(err, types.ErrNotConfigured))
	})
}

func TestSMSService_Verify(t *testing.T) {
	tests := []struct {
		name    string
		account *openapi.ApiV2010Account
		err     error
		wantErr bool
	}{
		{name: "active", account: &openapi.ApiV2010Account{Status: aws.String("active")}},
		{name: "suspended", account: &openapi.ApiV2010Account{Status: aws.String("suspended")}, wantErr: true},
		{name: "auth failure", err: errors.New("20003 authenticate"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			twilioMock := &mockTwilioAPI{
				FetchAccountFunc: func(sid string) (*openapi.ApiV2010Account, error) {
					assert.Equal(t, "AC123", sid)
					return tt.account, tt.err
				},
			}
			service, _ := newTestSMSService(config.Config{}, twilioMock, nil)

			err := service.Verify(context.Background(), franchiseeTwilioConfig())
			if tt.wantErr {
				assert.True(t, errors.Is(err, types.ErrUpstream))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTwilioDeliveryStatus(t *testing.T) {
	assert.Equal(t, models.DeliveryStatusDelivered, twilioDeliveryStatus("delivered"))
	assert.Equal(t, models.DeliveryStatusFailed, twilioDeliveryStatus("undelivered"))
	assert.Equal(t, models.DeliveryStatusFailed, twilioDeliveryStatus("failed"))
	assert.Equal(t, models.DeliveryStatusAccepted, twilioDeliveryStatus("queued"))
	assert.Equal(t, models.DeliveryStatusAccepted, twilioDeliveryStatus("sent"))
}
