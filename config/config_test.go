package config

import (
	"testing"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		ServerPort:           8288,
		SupabaseJWTSecret:    "secret",
		AIReportPollInterval: 3 * time.Second,
		AIReportPollTimeout:  30 * time.Second,
		SMSDefaultProvider:   "twilio",
		EmailProvider:        "smtp",
	}
}

func TestValidateConfig(t *testing.T) {
	log := logger.New("config_test")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "supabase url only", mutate: func(c *Config) {
			c.SupabaseJWTSecret = ""
			c.SupabaseURL = "https://project.supabase.co"
		}},
		{name: "sns and ses", mutate: func(c *Config) {
			c.SMSDefaultProvider = "sns"
			c.EmailProvider = "ses"
		}},
		{name: "missing port", mutate: func(c *Config) { c.ServerPort = 0 }, wantErr: true},
		{name: "no token validation", mutate: func(c *Config) { c.SupabaseJWTSecret = "" }, wantErr: true},
		{name: "zero poll interval", mutate: func(c *Config) { c.AIReportPollInterval = 0 }, wantErr: true},
		{name: "timeout shorter than interval", mutate: func(c *Config) {
			c.AIReportPollTimeout = time.Second
		}, wantErr: true},
		{name: "unknown sms provider", mutate: func(c *Config) { c.SMSDefaultProvider = "pigeon" }, wantErr: true},
		{name: "unknown email provider", mutate: func(c *Config) { c.EmailProvider = "fax" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			err := validateConfig(config, log)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, config, GetConfig())
		})
	}
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("SUPABASE_JWT_SECRET", "test-secret")
	t.Setenv("AI_REPORT_POLL_INTERVAL", "2s")
	t.Setenv("AI_REPORT_POLL_TIMEOUT", "20s")

	config, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9000, config.ServerPort)
	assert.Equal(t, "localhost", config.DatabaseHost)
	assert.Equal(t, 2*time.Second, config.AIReportPollInterval)
	assert.Equal(t, 20*time.Second, config.AIReportPollTimeout)
	assert.Equal(t, "twilio", config.SMSDefaultProvider, "defaults apply")
	assert.Equal(t, 200, config.TechHubFeedSize)
}
