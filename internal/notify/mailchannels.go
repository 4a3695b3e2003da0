package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

// MailChannelsConfig holds configuration for the MailChannels transactional API.
type MailChannelsConfig struct {
	APIKey    string
	Endpoint  string
	FromEmail string
	FromName  string
	Timeout   time.Duration

	// AllowUnauthenticated enables the deprecated keyless send mode.
	AllowUnauthenticated bool

	HTTPClient *http.Client
}

// MailChannelsSender posts v3 mail payloads to MailChannels.
type MailChannelsSender struct {
	client               *http.Client
	endpoint             string
	apiKey               string
	allowUnauthenticated bool
	fromEmail            string
	fromName             string
	logger               *logging.Logger
}

// NewMailChannelsSender creates a MailChannels sender. A missing API key is
// not rejected here; Send reports it unless the legacy keyless mode is on.
func NewMailChannelsSender(cfg MailChannelsConfig, logger *logging.Logger) *MailChannelsSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.FromName == "" {
		cfg.FromName = "Lead Form"
	}
	if strings.TrimSpace(cfg.APIKey) == "" && cfg.AllowUnauthenticated {
		logger.Warn("mailchannels: unauthenticated send mode is deprecated; configure MAILCHANNELS_API_KEY")
	}
	return &MailChannelsSender{
		client:               client,
		endpoint:             cfg.Endpoint,
		apiKey:               strings.TrimSpace(cfg.APIKey),
		allowUnauthenticated: cfg.AllowUnauthenticated,
		fromEmail:            cfg.FromEmail,
		fromName:             cfg.FromName,
		logger:               logger,
	}
}

// Send posts the message and waits for the provider's answer. Non-2xx
// responses come back as *ProviderError with the raw status and body.
func (s *MailChannelsSender) Send(ctx context.Context, msg EmailMessage) error {
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	switch {
	case s.apiKey != "":
		headers["X-Api-Key"] = s.apiKey
	case s.allowUnauthenticated:
		s.logger.Warn("mailchannels: sending without API key (deprecated)", "to", msg.To)
	default:
		return ErrMissingCredential
	}

	req, err := rest.BuildRequestObject(rest.Request{
		Method:  rest.Post,
		BaseURL: s.endpoint,
		Headers: headers,
		Body:    mail.GetRequestBody(buildV3Mail(msg, s.fromEmail, s.fromName)),
	})
	if err != nil {
		return fmt.Errorf("notify: mailchannels build request: %w", err)
	}

	resp, err := s.client.Do(req.WithContext(ctx))
	if err != nil {
		s.logger.Error("mailchannels send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: mailchannels send failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		// The status code is still authoritative; the body is diagnostic only.
		s.logger.Warn("mailchannels response body unreadable", "error", err, "status", resp.StatusCode)
		raw = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("mailchannels returned error status", "status", resp.StatusCode, "to", msg.To)
		return &ProviderError{Provider: "mailchannels", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	s.logger.Info("email sent via mailchannels", "to", msg.To, "subject", msg.Subject, "status", resp.StatusCode)
	return nil
}

var _ EmailSender = (*MailChannelsSender)(nil)
