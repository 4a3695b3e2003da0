package bootstrap

import (
	"context"
	"fmt"

	appconfig "github.com/wolfman30/lead-intake/internal/config"
	"github.com/wolfman30/lead-intake/internal/notify"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

// BuildEmailSender returns the sender for EMAIL_PROVIDER. A nil sender with
// a nil error means the provider is selected but not usable; the lead
// handler reports that as a configuration error per request.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case appconfig.ProviderMailChannels, "":
		return notify.NewMailChannelsSender(notify.MailChannelsConfig{
			APIKey:               cfg.MailChannelsAPIKey,
			Endpoint:             cfg.MailChannelsAPIURL,
			FromEmail:            cfg.FromEmail,
			FromName:             cfg.FromName,
			Timeout:              cfg.EmailTimeout,
			AllowUnauthenticated: cfg.MailChannelsAllowUnauthenticated,
		}, logger), nil

	case appconfig.ProviderSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty")
			return nil, nil
		}
		return sender, nil

	case appconfig.ProviderSES:
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		client := NewSESClient(awsCfg, cfg.AWSEndpointOverride)
		return notify.NewSESSender(client, notify.SESConfig{
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}, logger), nil

	case appconfig.ProviderStub:
		logger.Warn("using stub email sender; leads will only be logged")
		return notify.NewStubEmailSender(logger), nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

// BuildWebhookForwarder returns nil when ZAPIER_WEBHOOK_URL is unset.
func BuildWebhookForwarder(cfg *appconfig.Config, logger *logging.Logger) *notify.WebhookForwarder {
	return notify.NewWebhookForwarder(cfg.WebhookURL, cfg.WebhookTimeout, logger)
}
