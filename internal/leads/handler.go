package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/lead-intake/internal/background"
	"github.com/wolfman30/lead-intake/internal/notify"
	"github.com/wolfman30/lead-intake/internal/observability/metrics"
	"github.com/wolfman30/lead-intake/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("leadintake.internal.leads")

const outcomeAccepted, outcomeHoneypot = "accepted", "honeypot"

// Forwarder delivers the CRM payload. Implemented by notify.WebhookForwarder.
type Forwarder interface {
	Forward(ctx context.Context, payload map[string]string) error
}

// TaskRunner runs work detached from the request. Implemented by background.Runner.
type TaskRunner interface {
	Go(ctx context.Context, name string, task background.Task) error
}

// Option configures optional Handler collaborators.
type Option func(*Handler)

// WithWebhook enables the best-effort CRM forward. Both values are required.
func WithWebhook(forwarder Forwarder, runner TaskRunner) Option {
	return func(h *Handler) {
		h.forwarder = forwarder
		h.tasks = runner
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *metrics.LeadMetrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// Handler handles lead form submissions
type Handler struct {
	settings  Settings
	email     notify.EmailSender
	forwarder Forwarder
	tasks     TaskRunner
	metrics   *metrics.LeadMetrics
	logger    *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(settings Settings, email notify.EmailSender, logger *logging.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if len(settings.Schema.Required) == 0 {
		settings.Schema = NewSchema(nil, settings.Schema.IntentRequired)
	}
	h := &Handler{
		settings: settings,
		email:    email,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP handles POST form submissions. Every failure, panics included,
// ends in exactly one structured response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "leads.intake")
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("lead handler panicked", "panic", rec)
			err := internal(fmt.Errorf("panic: %v", rec))
			span.RecordError(err)
			h.fail(w, err)
		}
	}()

	outcome, err := h.process(ctx, w, r.WithContext(ctx))
	if err != nil {
		tagged := asError(err)
		span.RecordError(tagged)
		span.SetStatus(codes.Error, tagged.Kind.String())
		span.SetAttributes(attribute.String("leadintake.outcome", tagged.Kind.String()))
		h.fail(w, tagged)
		return
	}

	span.SetAttributes(attribute.String("leadintake.outcome", outcome))
	h.metrics.ObserveSubmission(outcome)
	h.writeOK(w)
}

// process runs the pipeline. It returns an outcome label on success or a
// tagged error for the first failing stage.
func (h *Handler) process(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	if err := checkContentType(r); err != nil {
		return "", err
	}

	sub, err := extractFields(w, r)
	if err != nil {
		return "", err
	}

	if isBot(sub) {
		h.logger.Info("lead honeypot tripped; absorbing submission", "path", r.URL.Path)
		return outcomeHoneypot, nil
	}

	if err := h.settings.Schema.Validate(sub); err != nil {
		return "", err
	}
	if err := checkLengths(sub); err != nil {
		return "", err
	}
	if err := h.checkConfig(); err != nil {
		return "", err
	}

	meta := captureMetadata(r)
	if h.settings.StripMarkup {
		sub = stripSubmissionMarkup(sub)
	}

	msg := notify.EmailMessage{
		To:          h.settings.ToEmail,
		From:        h.settings.FromEmail,
		FromName:    h.settings.FromName,
		ReplyTo:     sub.Email,
		ReplyToName: sub.Name,
		Subject:     composeSubject(sub, h.settings.Schema),
		Body:        composeBody(sub, meta, h.settings.SiteLabel),
	}
	if err := h.deliver(ctx, msg); err != nil {
		return "", err
	}

	h.forward(ctx, crmPayload(sub, meta))
	h.logger.Info("lead delivered", "intent", sub.Intent, "source_page", sub.SourcePageOrDefault(), "provider", h.settings.Provider)
	return outcomeAccepted, nil
}

// checkConfig verifies the operator settings a send needs.
func (h *Handler) checkConfig() error {
	if strings.TrimSpace(h.settings.ToEmail) == "" || strings.TrimSpace(h.settings.FromEmail) == "" {
		return notConfigured("TO_EMAIL/FROM_EMAIL")
	}
	if strings.TrimSpace(h.settings.Credential) == "" && !h.settings.AllowUnauthenticated {
		env := h.settings.CredentialEnv
		if env == "" {
			env = "email provider credential"
		}
		return notConfigured(env)
	}
	if h.email == nil {
		return notConfigured("EMAIL_PROVIDER")
	}
	return nil
}

// deliver performs the synchronous provider send.
func (h *Handler) deliver(ctx context.Context, msg notify.EmailMessage) error {
	ctx, span := tracer.Start(ctx, "leads.email.send", trace.WithAttributes(
		attribute.String("leadintake.provider", h.settings.Provider),
	))
	defer span.End()

	if h.settings.EmailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.settings.EmailTimeout)
		defer cancel()
	}

	start := time.Now()
	err := h.email.Send(ctx, msg)
	elapsed := time.Since(start).Seconds()
	if err == nil {
		h.metrics.ObserveEmail(h.settings.Provider, "ok", elapsed)
		return nil
	}

	h.metrics.ObserveEmail(h.settings.Provider, "error", elapsed)
	span.RecordError(err)

	var perr *notify.ProviderError
	switch {
	case errors.As(err, &perr):
		span.SetAttributes(attribute.Int("leadintake.provider_status", perr.StatusCode))
		return deliveryFailed(perr.StatusCode, perr.Body, err)
	case errors.Is(err, notify.ErrMissingCredential):
		return notConfigured(h.settings.CredentialEnv)
	default:
		return internal(fmt.Errorf("email send: %w", err))
	}
}

// forward schedules the CRM webhook without waiting for it. Its result is
// only logged and counted.
func (h *Handler) forward(ctx context.Context, payload map[string]string) {
	if h.forwarder == nil || h.tasks == nil {
		return
	}
	forwarder, m, logger := h.forwarder, h.metrics, h.logger
	err := h.tasks.Go(ctx, "crm-webhook", func(taskCtx context.Context) error {
		err := forwarder.Forward(taskCtx, payload)
		m.ObserveWebhook(err == nil)
		return err
	})
	if err != nil {
		logger.Warn("crm webhook not scheduled", "error", err)
	}
}

type response struct {
	OK             bool    `json:"ok"`
	Error          string  `json:"error,omitempty"`
	ProviderStatus int     `json:"provider_status,omitempty"`
	ProviderBody   *string `json:"provider_body,omitempty"`
}

func (h *Handler) fail(w http.ResponseWriter, err *Error) {
	h.metrics.ObserveSubmission(err.Kind.String())
	switch err.Kind {
	case KindConfiguration:
		h.logger.Error("lead intake misconfigured", "error", err.Message)
	case KindDelivery:
		h.logger.Error("lead email rejected by provider", "provider", h.settings.Provider, "status", err.ProviderStatus)
	case KindInternal:
		h.logger.Error("lead intake failed", "error", err)
	default:
		h.logger.Info("lead rejected", "kind", err.Kind.String(), "reason", err.Message, "field", err.Field)
	}

	resp := response{OK: false, Error: err.Message}
	if err.Kind == KindDelivery {
		body := err.ProviderBody
		resp.ProviderStatus = err.ProviderStatus
		resp.ProviderBody = &body
	}
	h.write(w, err.Kind.Status(), resp)
}

func (h *Handler) writeOK(w http.ResponseWriter) {
	h.write(w, http.StatusOK, response{OK: true})
}

func (h *Handler) write(w http.ResponseWriter, status int, resp response) {
	if h.settings.PlainText {
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(plainText(resp)))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode lead response", "error", err)
	}
}

func plainText(resp response) string {
	if resp.OK {
		return "ok"
	}
	if resp.ProviderBody == nil {
		return resp.Error
	}
	return fmt.Sprintf("%s\nprovider_status: %d\nprovider_body: %s", resp.Error, resp.ProviderStatus, *resp.ProviderBody)
}
