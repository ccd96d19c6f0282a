// Package payment hosts the payment-initialization endpoints: requests are
// forwarded to Paystack with the server-held secret key and every attempt is
// recorded as a local transaction.
package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"verigate/internal/payment/metrics"
	"verigate/internal/platform/middleware"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/platform/audit"
)

// Gateway is the slice of the Paystack client the service depends on.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (json.RawMessage, error)
	Verify(ctx context.Context, reference string) (json.RawMessage, error)
}

// Store records transaction state transitions.
type Store interface {
	Save(ctx context.Context, tx Transaction) error
	Find(ctx context.Context, reference string) (*Transaction, error)
	UpdateStatus(ctx context.Context, reference string, status TransactionStatus, at time.Time) error
	ListRecent(ctx context.Context, limit int) ([]Transaction, error)
}

// Service orchestrates initialize/verify calls and transaction recording.
type Service struct {
	gateway        Gateway
	store          Store
	audit          audit.Publisher
	logger         *slog.Logger
	metricsEnabled bool
	now            func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithAudit attaches an audit publisher.
func WithAudit(p audit.Publisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics() Option {
	return func(s *Service) {
		s.metricsEnabled = true
	}
}

// NewService builds a payment service over the given gateway and store.
func NewService(gateway Gateway, store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize forwards an initialize request to Paystack and records the
// transaction. The returned body is Paystack's raw JSON envelope.
func (s *Service) Initialize(ctx context.Context, req InitializeRequest) (json.RawMessage, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if req.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}
	if req.Currency == "" {
		req.Currency = "NGN"
	}

	raw, err := s.gateway.Initialize(ctx, req)
	if err != nil {
		s.count(metrics.InitializationsTotal, "failure")
		s.record(ctx, req, StatusFailed)
		s.emit(ctx, audit.ActionPaymentFailed, req.Email, req.Reference)
		return nil, err
	}

	s.count(metrics.InitializationsTotal, "success")
	if s.metricsEnabled {
		metrics.AmountInitialized.WithLabelValues(req.Currency).Add(float64(req.Amount))
	}
	s.record(ctx, req, StatusInitialized)
	s.emit(ctx, audit.ActionPaymentInitialized, req.Email, req.Reference)
	return raw, nil
}

// Verify forwards a verify-by-reference request to Paystack and records the
// outcome against the local transaction, if one exists.
func (s *Service) Verify(ctx context.Context, reference string) (json.RawMessage, error) {
	raw, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.count(metrics.VerificationsTotal, "failure")
		s.updateStatus(ctx, reference, StatusFailed)
		s.emit(ctx, audit.ActionPaymentFailed, "", reference)
		return nil, err
	}

	status := StatusFailed
	action := audit.ActionPaymentFailed
	if verificationSucceeded(raw) {
		status = StatusVerified
		action = audit.ActionPaymentVerified
	}
	s.count(metrics.VerificationsTotal, string(status))
	s.updateStatus(ctx, reference, status)
	s.emit(ctx, action, "", reference)
	return raw, nil
}

// History returns the most recent locally recorded transactions.
func (s *Service) History(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListRecent(ctx, limit)
}

// verificationSucceeded inspects Paystack's verify envelope:
// {"status":true,"data":{"status":"success",...}}.
func verificationSucceeded(raw json.RawMessage) bool {
	var envelope struct {
		Status bool `json:"status"`
		Data   struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return false
	}
	return envelope.Status && envelope.Data.Status == "success"
}

// record persists a transaction snapshot. Recording is best-effort: a store
// failure is logged, never surfaced to the payer.
func (s *Service) record(ctx context.Context, req InitializeRequest, status TransactionStatus) {
	now := s.now()
	tx := Transaction{
		Reference: req.Reference,
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, tx); err != nil {
		s.logger.Error("record payment transaction", "reference", req.Reference, "error", err)
	}
}

func (s *Service) updateStatus(ctx context.Context, reference string, status TransactionStatus) {
	err := s.store.UpdateStatus(ctx, reference, status, s.now())
	if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
		s.logger.Error("update payment transaction", "reference", reference, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, email, reference string) {
	if s.audit == nil {
		return
	}
	event := audit.NewEvent(action)
	event.Email = email
	event.Detail = reference
	event.RequestID = middleware.GetRequestID(ctx)
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.Warn("publish payment audit event", "action", action, "error", err)
	}
}

func (s *Service) count(vec *prometheus.CounterVec, outcome string) {
	if !s.metricsEnabled {
		return
	}
	vec.WithLabelValues(outcome).Inc()
}
