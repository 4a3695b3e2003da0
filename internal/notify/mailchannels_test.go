package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

func testMessage() EmailMessage {
	return EmailMessage{
		To:          "owner@example.com",
		ReplyTo:     "jane@example.com",
		ReplyToName: "Jane",
		Subject:     "New Inquiry (consulting): Jane",
		Body:        "IDENTITY\nName: Jane\n",
	}
}

func TestMailChannelsSender_SendsAuthenticatedV3Payload(t *testing.T) {
	var gotHeader http.Header
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewMailChannelsSender(MailChannelsConfig{
		APIKey:    "mc-key",
		Endpoint:  srv.URL,
		FromEmail: "form@example.com",
		FromName:  "Example Lead Form",
		Timeout:   time.Second,
	}, logging.Discard())

	err := sender.Send(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Equal(t, "mc-key", gotHeader.Get("X-Api-Key"))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "application/json", gotHeader.Get("Accept"))
	assert.Equal(t, "New Inquiry (consulting): Jane", gotBody["subject"])

	replyTo, ok := gotBody["reply_to"].(map[string]any)
	require.True(t, ok, "reply_to missing: %v", gotBody)
	assert.Equal(t, "jane@example.com", replyTo["email"])
	assert.Equal(t, "Jane", replyTo["name"])

	content, ok := gotBody["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)
	first := content[0].(map[string]any)
	assert.Equal(t, "text/plain", first["type"])
	assert.Equal(t, "IDENTITY\nName: Jane\n", first["value"])
}

func TestMailChannelsSender_ProviderErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":["bad key"]}`))
	}))
	defer srv.Close()

	sender := NewMailChannelsSender(MailChannelsConfig{APIKey: "nope", Endpoint: srv.URL}, logging.Discard())
	err := sender.Send(context.Background(), testMessage())

	var perr *ProviderError
	require.True(t, errors.As(err, &perr), "expected ProviderError, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	assert.Equal(t, `{"errors":["bad key"]}`, perr.Body)
	assert.Equal(t, "mailchannels", perr.Provider)
}

func TestMailChannelsSender_MissingKeyRejected(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	sender := NewMailChannelsSender(MailChannelsConfig{Endpoint: srv.URL}, logging.Discard())
	err := sender.Send(context.Background(), testMessage())

	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.False(t, called, "provider must not be called without a key")
}

func TestMailChannelsSender_LegacyUnauthenticatedMode(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewMailChannelsSender(MailChannelsConfig{
		Endpoint:             srv.URL,
		AllowUnauthenticated: true,
	}, logging.Discard())

	require.NoError(t, sender.Send(context.Background(), testMessage()))
	assert.Empty(t, gotKey)
}

func TestMailChannelsSender_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	sender := NewMailChannelsSender(MailChannelsConfig{APIKey: "k", Endpoint: url}, logging.Discard())
	err := sender.Send(context.Background(), testMessage())

	require.Error(t, err)
	var perr *ProviderError
	assert.False(t, errors.As(err, &perr), "transport failures are not provider responses")
}
