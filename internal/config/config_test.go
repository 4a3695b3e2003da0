package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "EMAIL_PROVIDER", "LEAD_REQUIRED_FIELDS",
		"LEAD_INTENT_REQUIRED", "EMAIL_TIMEOUT", "MAILCHANNELS_API_URL",
		"FROM_NAME", "LEAD_PATH", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.EmailProvider != ProviderMailChannels {
		t.Fatalf("expected mailchannels provider by default, got %s", cfg.EmailProvider)
	}
	if cfg.MailChannelsAPIURL != DefaultMailChannelsURL {
		t.Fatalf("expected default mailchannels url, got %s", cfg.MailChannelsAPIURL)
	}
	if cfg.EmailTimeout != 10*time.Second {
		t.Fatalf("expected default email timeout, got %s", cfg.EmailTimeout)
	}
	if len(cfg.RequiredFields) != 3 || cfg.RequiredFields[2] != "phone" {
		t.Fatalf("expected name,email,phone required by default, got %v", cfg.RequiredFields)
	}
	if !cfg.IntentRequired {
		t.Fatalf("expected intent required by default")
	}
	if cfg.FromName != "Lead Form" {
		t.Fatalf("expected default from name, got %s", cfg.FromName)
	}
	if cfg.LeadPath != "/api/lead" {
		t.Fatalf("expected default lead path, got %s", cfg.LeadPath)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins by default, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TO_EMAIL", " owner@example.com ")
	t.Setenv("FROM_EMAIL", "form@example.com")
	t.Setenv("EMAIL_PROVIDER", "SendGrid")
	t.Setenv("SENDGRID_API_KEY", "sg-key")
	t.Setenv("ZAPIER_WEBHOOK_URL", "https://hooks.example.com/catch")
	t.Setenv("WEBHOOK_TIMEOUT", "3s")
	t.Setenv("LEAD_REQUIRED_FIELDS", "Name, email,,message")
	t.Setenv("LEAD_INTENT_REQUIRED", "false")
	t.Setenv("LEAD_RESPONSE_FORMAT", "TEXT")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.ToEmail != "owner@example.com" {
		t.Fatalf("expected trimmed recipient, got %q", cfg.ToEmail)
	}
	if cfg.EmailProvider != ProviderSendGrid {
		t.Fatalf("expected sendgrid provider, got %s", cfg.EmailProvider)
	}
	if cfg.WebhookTimeout != 3*time.Second {
		t.Fatalf("expected webhook timeout override, got %s", cfg.WebhookTimeout)
	}
	want := []string{"name", "email", "message"}
	if len(cfg.RequiredFields) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.RequiredFields)
	}
	for i := range want {
		if cfg.RequiredFields[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cfg.RequiredFields)
		}
	}
	if cfg.IntentRequired {
		t.Fatalf("expected intent not required")
	}
	if cfg.ResponseFormat != "text" {
		t.Fatalf("expected text response format, got %s", cfg.ResponseFormat)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected two CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("EMAIL_TIMEOUT", "soon")
	t.Setenv("WEBHOOK_TIMEOUT", "-5s")
	cfg := Load()
	if cfg.EmailTimeout != 10*time.Second {
		t.Fatalf("expected fallback email timeout, got %s", cfg.EmailTimeout)
	}
	if cfg.WebhookTimeout != 10*time.Second {
		t.Fatalf("expected fallback webhook timeout, got %s", cfg.WebhookTimeout)
	}
}

func TestEmailCredential(t *testing.T) {
	tests := []struct {
		provider string
		wantVal  string
		wantEnv  string
	}{
		{ProviderMailChannels, "mc-key", "MAILCHANNELS_API_KEY"},
		{ProviderSendGrid, "sg-key", "SENDGRID_API_KEY"},
		{ProviderSES, "eu-west-1", "AWS_REGION"},
		{ProviderStub, ProviderStub, "EMAIL_PROVIDER"},
		{"unknown", "mc-key", "MAILCHANNELS_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &Config{
				EmailProvider:      tt.provider,
				MailChannelsAPIKey: "mc-key",
				SendGridAPIKey:     "sg-key",
				AWSRegion:          "eu-west-1",
			}
			val, env := cfg.EmailCredential()
			if val != tt.wantVal || env != tt.wantEnv {
				t.Fatalf("expected (%s, %s), got (%s, %s)", tt.wantVal, tt.wantEnv, val, env)
			}
		})
	}
}

func TestAllowUnauthenticatedSendOnlyForMailChannels(t *testing.T) {
	cfg := &Config{EmailProvider: ProviderMailChannels, MailChannelsAllowUnauthenticated: true}
	if !cfg.AllowUnauthenticatedSend() {
		t.Fatalf("expected legacy mode enabled")
	}
	cfg.EmailProvider = ProviderSendGrid
	if cfg.AllowUnauthenticatedSend() {
		t.Fatalf("legacy mode must not apply to sendgrid")
	}
}
