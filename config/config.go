package config

import (
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	PublicAppURL         string `mapstructure:"PUBLIC_APP_URL"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset   int    `mapstructure:"DB_CACHE_RESET"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`

	SupabaseURL            string `mapstructure:"SUPABASE_URL"`
	SupabaseJWTSecret      string `mapstructure:"SUPABASE_JWT_SECRET"`
	SupabaseServiceRoleKey string `mapstructure:"SUPABASE_SERVICE_ROLE_KEY"`

	S3Bucket          string `mapstructure:"S3_BUCKET"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3PublicBaseURL   string `mapstructure:"S3_PUBLIC_BASE_URL"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`

	SMSDefaultProvider string `mapstructure:"SMS_DEFAULT_PROVIDER"`
	TwilioAccountSID   string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber   string `mapstructure:"TWILIO_FROM_NUMBER"`

	EmailProvider  string `mapstructure:"EMAIL_PROVIDER"`
	EmailFrom      string `mapstructure:"EMAIL_FROM"`
	SMTPHost       string `mapstructure:"SMTP_HOST"`
	SMTPPort       int    `mapstructure:"SMTP_PORT"`
	SMTPUsername   string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword   string `mapstructure:"SMTP_PASSWORD"`
	AWSRegion      string `mapstructure:"AWS_REGION"`
	GeocodeBaseURL string `mapstructure:"GEOCODE_BASE_URL"`

	AIReportWebhookSecret string        `mapstructure:"AI_REPORT_WEBHOOK_SECRET"`
	AIReportPollInterval  time.Duration `mapstructure:"AI_REPORT_POLL_INTERVAL"`
	AIReportPollTimeout   time.Duration `mapstructure:"AI_REPORT_POLL_TIMEOUT"`

	SchedulerEnabled        bool          `mapstructure:"SCHEDULER_ENABLED"`
	TechHubActivityInterval time.Duration `mapstructure:"TECH_HUB_ACTIVITY_INTERVAL"`
	TechHubFeedSize         int           `mapstructure:"TECH_HUB_FEED_SIZE"`
}

var ConfigInstance Config

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT", "PUBLIC_APP_URL",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
	"CORS_ALLOW_ORIGINS",
	"SUPABASE_URL", "SUPABASE_JWT_SECRET", "SUPABASE_SERVICE_ROLE_KEY",
	"S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_PUBLIC_BASE_URL", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	"SMS_DEFAULT_PROVIDER", "TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER",
	"EMAIL_PROVIDER", "EMAIL_FROM", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
	"AWS_REGION", "GEOCODE_BASE_URL",
	"AI_REPORT_WEBHOOK_SECRET", "AI_REPORT_POLL_INTERVAL", "AI_REPORT_POLL_TIMEOUT",
	"SCHEDULER_ENABLED", "TECH_HUB_ACTIVITY_INTERVAL", "TECH_HUB_FEED_SIZE",
}

func setDefaults() {
	viper.SetDefault("ENVIRONMENT", "production")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_CACHE_RESET", -1)
	viper.SetDefault("SMS_DEFAULT_PROVIDER", "twilio")
	viper.SetDefault("EMAIL_PROVIDER", "smtp")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("AI_REPORT_POLL_INTERVAL", "3s")
	viper.SetDefault("AI_REPORT_POLL_TIMEOUT", "30s")
	viper.SetDefault("TECH_HUB_ACTIVITY_INTERVAL", "2m")
	viper.SetDefault("TECH_HUB_FEED_SIZE", 200)
}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()
	setDefaults()

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info("Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"scheduler", config.SchedulerEnabled)
	return config, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.SupabaseJWTSecret == "" && config.SupabaseURL == "" {
		return log.ErrMsg(
			"Fatal error: SUPABASE_JWT_SECRET or SUPABASE_URL required for token validation",
		)
	}

	if config.AIReportPollInterval <= 0 || config.AIReportPollTimeout < config.AIReportPollInterval {
		return log.Error(
			"Fatal error: invalid AI report polling window",
			"interval", config.AIReportPollInterval,
			"timeout", config.AIReportPollTimeout,
		)
	}

	switch config.SMSDefaultProvider {
	case "twilio", "sns":
	default:
		return log.Error("Fatal error: unsupported SMS provider", "provider", config.SMSDefaultProvider)
	}

	switch config.EmailProvider {
	case "smtp", "ses":
	default:
		return log.Error("Fatal error: unsupported email provider", "provider", config.EmailProvider)
	}

	ConfigInstance = config
	return nil
}
