package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Email provider identifiers accepted by EMAIL_PROVIDER.
const (
	ProviderMailChannels = "mailchannels"
	ProviderSendGrid     = "sendgrid"
	ProviderSES          = "ses"
	ProviderStub         = "stub"
)

// DefaultMailChannelsURL is the MailChannels transactional send endpoint.
const DefaultMailChannelsURL = "https://api.mailchannels.net/tx/v1/send"

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string
	LeadPath string

	// Delivery targets
	ToEmail   string
	FromEmail string
	FromName  string

	EmailProvider string
	EmailTimeout  time.Duration

	// MailChannels Configuration
	MailChannelsAPIKey               string
	MailChannelsAPIURL               string
	MailChannelsAllowUnauthenticated bool

	// SendGrid Email Configuration
	SendGridAPIKey string

	// AWS (SES provider)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// CRM webhook
	WebhookURL     string
	WebhookTimeout time.Duration

	// Form schema
	RequiredFields []string
	IntentRequired bool
	ResponseFormat string
	StripMarkup    bool
	SiteLabel      string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LeadPath: getEnv("LEAD_PATH", "/api/lead"),

		ToEmail:   strings.TrimSpace(getEnv("TO_EMAIL", "")),
		FromEmail: strings.TrimSpace(getEnv("FROM_EMAIL", "")),
		FromName:  getEnv("FROM_NAME", "Lead Form"),

		EmailProvider: strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ProviderMailChannels))),
		EmailTimeout:  getEnvAsDuration("EMAIL_TIMEOUT", 10*time.Second),

		MailChannelsAPIKey:               strings.TrimSpace(getEnv("MAILCHANNELS_API_KEY", "")),
		MailChannelsAPIURL:               getEnv("MAILCHANNELS_API_URL", DefaultMailChannelsURL),
		MailChannelsAllowUnauthenticated: getEnvAsBool("MAILCHANNELS_ALLOW_UNAUTHENTICATED", false),

		SendGridAPIKey: strings.TrimSpace(getEnv("SENDGRID_API_KEY", "")),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		WebhookURL:     strings.TrimSpace(getEnv("ZAPIER_WEBHOOK_URL", "")),
		WebhookTimeout: getEnvAsDuration("WEBHOOK_TIMEOUT", 10*time.Second),

		RequiredFields: getEnvAsList("LEAD_REQUIRED_FIELDS", []string{"name", "email", "phone"}),
		IntentRequired: getEnvAsBool("LEAD_INTENT_REQUIRED", true),
		ResponseFormat: strings.ToLower(strings.TrimSpace(getEnv("LEAD_RESPONSE_FORMAT", "json"))),
		StripMarkup:    getEnvAsBool("LEAD_STRIP_MARKUP", false),
		SiteLabel:      getEnv("LEAD_SITE_LABEL", "website contact form"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// EmailCredential returns the credential the configured provider needs and
// the environment variable it comes from. SES authenticates through the AWS
// credential chain, so the region stands in for it.
func (c *Config) EmailCredential() (value, envName string) {
	switch c.EmailProvider {
	case ProviderSendGrid:
		return c.SendGridAPIKey, "SENDGRID_API_KEY"
	case ProviderSES:
		return c.AWSRegion, "AWS_REGION"
	case ProviderStub:
		return ProviderStub, "EMAIL_PROVIDER"
	default:
		return c.MailChannelsAPIKey, "MAILCHANNELS_API_KEY"
	}
}

// AllowUnauthenticatedSend reports whether the deprecated keyless MailChannels
// mode is enabled for the active provider.
func (c *Config) AllowUnauthenticatedSend() bool {
	return c.EmailProvider == ProviderMailChannels && c.MailChannelsAllowUnauthenticated
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
