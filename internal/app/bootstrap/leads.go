package bootstrap

import (
	"context"

	"github.com/wolfman30/lead-intake/internal/background"
	appconfig "github.com/wolfman30/lead-intake/internal/config"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/internal/observability/metrics"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

// BuildLeadSettings maps environment config onto the handler's settings.
func BuildLeadSettings(cfg *appconfig.Config) leads.Settings {
	credential, credentialEnv := cfg.EmailCredential()
	return leads.Settings{
		ToEmail:              cfg.ToEmail,
		FromEmail:            cfg.FromEmail,
		FromName:             cfg.FromName,
		Provider:             cfg.EmailProvider,
		Credential:           credential,
		CredentialEnv:        credentialEnv,
		AllowUnauthenticated: cfg.AllowUnauthenticatedSend(),
		EmailTimeout:         cfg.EmailTimeout,
		Schema:               leads.NewSchema(cfg.RequiredFields, cfg.IntentRequired),
		SiteLabel:            cfg.SiteLabel,
		PlainText:            cfg.ResponseFormat == "text",
		StripMarkup:          cfg.StripMarkup,
	}
}

// LeadIntake is the wired lead handler plus the runner its webhook tasks
// run on. Callers drain Tasks before exiting.
type LeadIntake struct {
	Handler *leads.Handler
	Tasks   *background.Runner
}

// BuildLeadIntake wires the email sender, optional webhook and metrics into
// a lead handler. m may be nil.
func BuildLeadIntake(ctx context.Context, cfg *appconfig.Config, m *metrics.LeadMetrics, logger *logging.Logger) (*LeadIntake, error) {
	if logger == nil {
		logger = logging.Default()
	}

	sender, err := BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	tasks := background.NewRunner(cfg.WebhookTimeout, logger)
	opts := []leads.Option{leads.WithMetrics(m)}
	if forwarder := BuildWebhookForwarder(cfg, logger); forwarder != nil {
		opts = append(opts, leads.WithWebhook(forwarder, tasks))
		logger.Info("crm webhook forwarding enabled")
	}

	settings := BuildLeadSettings(cfg)
	if settings.Credential == "" && !settings.AllowUnauthenticated {
		logger.Warn("email provider credential missing; submissions will fail until it is set", "setting", settings.CredentialEnv)
	}

	return &LeadIntake{
		Handler: leads.NewHandler(settings, sender, logger, opts...),
		Tasks:   tasks,
	}, nil
}
