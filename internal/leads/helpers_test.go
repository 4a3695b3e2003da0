package leads

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/lead-intake/internal/background"
	"github.com/wolfman30/lead-intake/internal/notify"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg notify.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) calls() []notify.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.EmailMessage(nil), s.sent...)
}

type recordingForwarder struct {
	mu       sync.Mutex
	payloads []map[string]string
	err      error
}

func (f *recordingForwarder) Forward(ctx context.Context, payload map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return f.err
}

func (f *recordingForwarder) calls() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.payloads...)
}

func testSettings() Settings {
	return Settings{
		ToEmail:       "owner@example.com",
		FromEmail:     "form@example.com",
		FromName:      "Example Lead Form",
		Provider:      "mailchannels",
		Credential:    "mc-key",
		CredentialEnv: "MAILCHANNELS_API_KEY",
		Schema:        NewSchema([]string{"name", "email", "phone"}, true),
		SiteLabel:     "example.com/contact",
	}
}

func validForm() url.Values {
	return url.Values{
		"name":        {"Jane Doe"},
		"email":       {"jane@example.com"},
		"phone":       {"+1 555 0100"},
		"intent":      {"consulting"},
		"message":     {"Hi there"},
		"source_page": {"pricing"},
		"consent":     {"yes"},
	}
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(values url.Values) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			_ = mw.WriteField(k, v)
		}
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/lead", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestHandler(settings Settings, sender notify.EmailSender, opts ...Option) *Handler {
	return NewHandler(settings, sender, logging.Discard(), opts...)
}

func newTestRunner() *background.Runner {
	return background.NewRunner(time.Second, logging.Discard())
}
