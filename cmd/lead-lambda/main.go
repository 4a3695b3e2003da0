package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/wolfman30/lead-intake/internal/api/router"
	"github.com/wolfman30/lead-intake/internal/app/bootstrap"
	appconfig "github.com/wolfman30/lead-intake/internal/config"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

// TaskWaiter is satisfied by background.Runner.
type TaskWaiter interface {
	Wait(ctx context.Context) error
}

type app struct {
	handler  http.Handler
	tasks    TaskWaiter
	drainFor time.Duration
	logger   *logging.Logger
}

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	intake, err := bootstrap.BuildLeadIntake(context.Background(), cfg, nil, logger)
	if err != nil {
		panic(err)
	}

	a := &app{
		handler: router.New(&router.Config{
			Logger:             logger,
			LeadHandler:        intake.Handler,
			LeadPath:           cfg.LeadPath,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		}),
		tasks:    intake.Tasks,
		drainFor: cfg.WebhookTimeout,
		logger:   logger,
	}
	lambda.Start(a.handle)
}

// handle serves one API Gateway event through the router. The execution
// environment freezes once this returns, so webhook tasks are drained first.
func (a *app) handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := toHTTPRequest(ctx, evt)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body"}, nil
	}

	rw := newResponseBuffer()
	a.handler.ServeHTTP(rw, req)

	if a.tasks != nil {
		waitCtx, cancel := context.WithTimeout(ctx, a.drainFor)
		if err := a.tasks.Wait(waitCtx); err != nil {
			a.logger.Warn("background tasks still running at invocation end", "error", err)
		}
		cancel()
	}

	return rw.toEvent(), nil
}

func toHTTPRequest(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}
	if path == "" {
		path = "/"
	}

	body, err := decodeBody(evt)
	if err != nil {
		return nil, err
	}

	u := &url.URL{Path: path, RawQuery: strings.TrimSpace(evt.RawQueryString)}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range evt.Headers {
		req.Header.Set(k, v)
	}
	if len(evt.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(evt.Cookies, "; "))
	}
	req.Host = strings.TrimSpace(evt.RequestContext.DomainName)
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		req.RemoteAddr = ip
		if req.Header.Get("X-Forwarded-For") == "" {
			req.Header.Set("X-Forwarded-For", ip)
		}
	}
	if ua := strings.TrimSpace(evt.RequestContext.HTTP.UserAgent); ua != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", ua)
	}
	req.ContentLength = int64(len(body))
	return req, nil
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

// responseBuffer collects what the router writes so it can be returned as
// a single API Gateway response.
type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: http.Header{}}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *responseBuffer) toEvent() events.APIGatewayV2HTTPResponse {
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	out := events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       b.body.String(),
		Headers:    map[string]string{},
	}
	for k, v := range b.header {
		if len(v) > 0 {
			out.Headers[strings.ToLower(k)] = strings.Join(v, ", ")
		}
	}
	return out
}
