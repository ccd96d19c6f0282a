// Package backend is the single client for the upstream credential-
// verification REST API. One request executor carries every endpoint group so
// error normalization and token handling exist exactly once.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"verigate/internal/platform/config"
	platformmetrics "verigate/internal/platform/metrics"
)

// Fixed user-facing messages for failure classes the backend cannot phrase
// itself.
const (
	msgThrottled    = "Too many requests. Please wait a moment and try again."
	msgNetworkError = "Unable to reach the server. Please check your connection and try again."
	msgBadResponse  = "Invalid response from server"
)

// Response is the normalized envelope every backend call reduces to. Callers
// branch on Success and read either Data or Error; raw transport failures
// never escape this package.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// DecodeData unmarshals the envelope's data payload into v.
func (r *Response) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return json.Unmarshal([]byte("null"), v)
	}
	return json.Unmarshal(r.Data, v)
}

// Client executes requests against the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *platformmetrics.Metrics
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport, used by tests and by callers that
// need custom TLS or proxy settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics enables per-request counters and latency histograms.
func WithMetrics(m *platformmetrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a backend client. The configured timeout bounds every request;
// a hung upstream fails the one call rather than wedging the caller forever.
func New(cfg config.BackendConfig, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		tracer:     otel.Tracer("verigate/internal/backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do executes one backend request and normalizes whatever comes back. It
// never returns an error: transport failures, malformed payloads, and
// throttling all collapse into the envelope so callers have a single
// contract to branch on.
func (c *Client) do(ctx context.Context, method, path, bearer string, body any, group string) *Response {
	start := time.Now()
	resp := c.exec(ctx, method, path, bearer, body)
	c.observe(group, resp.Success, time.Since(start))
	return resp
}

func (c *Client) exec(ctx context.Context, method, path, bearer string, body any) *Response {
	ctx, span := c.tracer.Start(ctx, "backend "+method+" "+path)
	defer span.End()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to encode request body", "path", path, "error", err)
			return &Response{Success: false, Error: msgBadResponse}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &Response{Success: false, Error: msgNetworkError}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return &Response{Success: false, Error: msgNetworkError}
	}
	defer httpResp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return &Response{Success: false, Error: msgThrottled}
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
	if err != nil {
		return &Response{Success: false, Error: msgNetworkError}
	}

	return normalize(httpResp.StatusCode, raw)
}

// normalize reduces any backend payload shape to the envelope. Backends that
// already speak {success, data|error} pass through; everything else is judged
// by HTTP status.
func normalize(status int, raw []byte) *Response {
	var envelope struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Success != nil {
		resp := &Response{
			Success: *envelope.Success,
			Data:    envelope.Data,
			Error:   envelope.Error,
			Message: envelope.Message,
		}
		if !resp.Success && resp.Error == "" {
			if resp.Message != "" {
				resp.Error = resp.Message
			} else {
				resp.Error = genericFailure(status)
			}
		}
		return resp
	}

	if status >= 400 {
		return &Response{Success: false, Error: genericFailure(status)}
	}

	if !json.Valid(raw) {
		return &Response{Success: false, Error: msgBadResponse}
	}
	return &Response{Success: true, Data: raw}
}

func genericFailure(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Authentication required"
	case status == http.StatusForbidden:
		return "You do not have permission to access this resource"
	case status == http.StatusNotFound:
		return "Resource not found"
	case status >= 500:
		return "The server encountered an error. Please try again later."
	default:
		return "Request failed"
	}
}

func (c *Client) observe(group string, success bool, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.metrics.BackendRequests.WithLabelValues(group, outcome).Inc()
	c.metrics.BackendDurationSec.WithLabelValues(group).Observe(elapsed.Seconds())
}

// withQuery appends url-encoded parameters to a path.
func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
