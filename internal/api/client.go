// Package api implements the client for the remote DeDi registry REST API.
// Every call carries cookie-based credentials and is recognized as
// successful by matching the exact message string the server documents for
// that operation. The client never patches local state: callers re-fetch
// after a successful mutation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dedi/internal/log"
)

// DefaultBaseURL is the public sandbox host used when no endpoint is
// configured.
const DefaultBaseURL = "https://sandbox.dedi.global"

const defaultTimeout = 15 * time.Second

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the API host. Default: DefaultBaseURL.
	BaseURL string

	// Timeout bounds every request. Default: 15s.
	Timeout time.Duration

	// HTTPClient overrides the underlying client, mainly for tests.
	// When set, the caller owns cookie handling.
	HTTPClient HTTPDoer
}

// Client issues requests to the registry API.
type Client struct {
	baseURL string
	http    HTTPDoer
	tracer  trace.Tracer
}

// envelope is the common response shape {message, data}. Some endpoints
// skip the envelope and put their payload at the body root, so the raw
// bytes are kept for callers that need to re-parse.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`

	raw json.RawMessage
}

// NewClient creates a client with an in-memory cookie jar so the session
// cookie set at login rides along on every subsequent call.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	doer := cfg.HTTPClient
	if doer == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		doer = &http.Client{Jar: jar, Timeout: timeout}
	}

	return &Client{
		baseURL: baseURL,
		http:    doer,
		tracer:  otel.Tracer("dedi/api"),
	}, nil
}

// BaseURL returns the resolved API host.
func (c *Client) BaseURL() string { return c.baseURL }

// do issues one request and decodes the {message, data} envelope.
// A nil body on POST/PUT sends an empty JSON object, matching what the
// registry mutation endpoints expect.
func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
	defer span.End()

	var reader io.Reader
	if method == http.MethodPost || method == http.MethodPut {
		payload := body
		if payload == nil {
			payload = struct{}{}
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			span.SetStatus(codes.Error, "marshal request")
			return nil, &TransportError{Op: "encoding request", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		span.SetStatus(codes.Error, "build request")
		return nil, &TransportError{Op: "building request", Err: err}
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.ErrorErr(log.CatAPI, "Request failed", err, "method", method, "path", path)
		span.SetStatus(codes.Error, "transport")
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, "read body")
		return nil, &TransportError{Op: "reading response", Err: err}
	}

	// Best-effort decode: failure responses often carry {message} too.
	var env envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
		env.raw = raw
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn(log.CatAPI, "Non-2xx response",
			"method", method, "path", path, "status", resp.StatusCode, "message", env.Message)
		span.SetStatus(codes.Error, "api error")
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	log.Debug(log.CatAPI, "Request completed", "method", method, "path", path, "status", resp.StatusCode)
	return &env, nil
}

// expect verifies the envelope carries the exact success message the
// contract documents for this operation.
func expect(env *envelope, want string) error {
	if env.Message != want {
		return &APIError{Message: fmt.Sprintf("unexpected response: %s", env.Message)}
	}
	return nil
}
