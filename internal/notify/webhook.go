package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/lead-intake/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var webhookTracer = otel.Tracer("leadintake.internal.notify.webhook")

// WebhookForwarder posts lead payloads to a CRM automation hook (Zapier and similar).
type WebhookForwarder struct {
	client *http.Client
	url    string
	logger *logging.Logger
}

// NewWebhookForwarder returns nil when url is empty so callers can treat the
// forward as disabled.
func NewWebhookForwarder(url string, timeout time.Duration, logger *logging.Logger) *WebhookForwarder {
	if url == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookForwarder{
		client: &http.Client{Timeout: timeout},
		url:    url,
		logger: logger,
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (f *WebhookForwarder) WithHTTPClient(client *http.Client) *WebhookForwarder {
	if f != nil && client != nil {
		f.client = client
	}
	return f
}

// Forward delivers payload once. There are no retries.
func (f *WebhookForwarder) Forward(ctx context.Context, payload map[string]string) error {
	if f == nil {
		return nil
	}
	ctx, span := webhookTracer.Start(ctx, "notify.webhook.forward")
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("notify: encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("notify: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("notify: webhook post failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
		span.RecordError(err)
		return err
	}
	return nil
}
