package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	dErrors "verigate/pkg/domain-errors"
)

const maxPaystackResponseBytes = 1 << 20

// PaystackClient talks to the Paystack REST API with the server-held secret
// key. Callers receive Paystack's raw JSON body so the envelope reaches the
// browser unaltered.
type PaystackClient struct {
	baseURL      string
	secretKey    string
	publicAppURL string
	httpClient   *http.Client
	logger       *slog.Logger
}

// PaystackOption configures a PaystackClient.
type PaystackOption func(*PaystackClient)

// WithPaystackHTTPClient replaces the underlying HTTP client.
func WithPaystackHTTPClient(hc *http.Client) PaystackOption {
	return func(c *PaystackClient) {
		c.httpClient = hc
	}
}

// NewPaystackClient builds a client for the given API base URL. publicAppURL
// is used to construct the post-payment callback URL.
func NewPaystackClient(baseURL, secretKey, publicAppURL string, logger *slog.Logger, opts ...PaystackOption) *PaystackClient {
	c := &PaystackClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		secretKey:    secretKey,
		publicAppURL: strings.TrimRight(publicAppURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InitializeRequest is the body accepted by the initialize endpoint.
type InitializeRequest struct {
	Email     string          `json:"email"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

type initializePayload struct {
	Email       string          `json:"email"`
	Amount      int64           `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CallbackURL string          `json:"callback_url,omitempty"`
}

// Initialize forwards a transaction-initialize request to Paystack and returns
// the raw response body.
func (c *PaystackClient) Initialize(ctx context.Context, req InitializeRequest) (json.RawMessage, error) {
	payload := initializePayload{
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Reference: req.Reference,
		Metadata:  req.Metadata,
	}
	if c.publicAppURL != "" {
		payload.CallbackURL = c.publicAppURL + "/payment/callback"
	}
	return c.do(ctx, http.MethodPost, "/transaction/initialize", payload)
}

// Verify forwards a verify-by-reference request to Paystack and returns the
// raw response body.
func (c *PaystackClient) Verify(ctx context.Context, reference string) (json.RawMessage, error) {
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "payment reference is required")
	}
	return c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
}

func (c *PaystackClient) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode paystack request")
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build paystack request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("paystack request failed", "method", method, "path", path, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "paystack request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPaystackResponseBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "read paystack response")
	}

	c.logger.Debug("paystack request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("paystack returned status %d", resp.StatusCode))
	}
	return raw, nil
}
