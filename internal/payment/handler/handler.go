// Package handler exposes the payment endpoints. Error responses use the
// {status, message} shape Paystack callers already expect, with fixed
// messages so upstream failures never leak detail to the browser.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"verigate/internal/payment"
	"verigate/pkg/platform/httputil"
)

const (
	msgInitializeFailed = "Payment initialization failed"
	msgVerifyFailed     = "Payment verification failed"
)

// Service defines the payment operations the handler needs.
type Service interface {
	Initialize(ctx context.Context, req payment.InitializeRequest) (json.RawMessage, error)
	Verify(ctx context.Context, reference string) (json.RawMessage, error)
}

// Handler wires payment endpoints to the payment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a payment handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts payment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/payments/initialize", h.HandleInitialize)
	r.Get("/api/payments/verify/{reference}", h.HandleVerify)
}

// HandleInitialize handles POST /api/payments/initialize. The response body
// is Paystack's raw JSON; any failure collapses to a fixed 500 envelope.
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req payment.InitializeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "malformed payment initialize body", "error", err)
		writeFailure(w, msgInitializeFailed)
		return
	}

	raw, err := h.service.Initialize(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "payment initialization failed",
			"email", req.Email,
			"reference", req.Reference,
			"error", err,
		)
		writeFailure(w, msgInitializeFailed)
		return
	}

	h.logger.InfoContext(ctx, "payment initialized",
		"email", req.Email,
		"reference", req.Reference,
		"amount", req.Amount,
		"currency", req.Currency,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteRaw(w, http.StatusOK, raw)
}

// HandleVerify handles GET /api/payments/verify/{reference}.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reference := chi.URLParam(r, "reference")

	raw, err := h.service.Verify(ctx, reference)
	if err != nil {
		h.logger.ErrorContext(ctx, "payment verification failed",
			"reference", reference,
			"error", err,
		)
		writeFailure(w, msgVerifyFailed)
		return
	}

	h.logger.InfoContext(ctx, "payment verified", "reference", reference)
	httputil.WriteRaw(w, http.StatusOK, raw)
}

// writeFailure emits the fixed-message 500 envelope used by both endpoints.
func writeFailure(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
		"status":  false,
		"message": message,
	})
}
