// Package analytics assembles the dashboard view from several upstream
// endpoints fetched in parallel.
package analytics

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"verigate/internal/backend"
	dErrors "verigate/pkg/domain-errors"
)

// Backend is the slice of the upstream client the service depends on.
type Backend interface {
	AnalyticsDashboard(ctx context.Context, bearer string, from, to time.Time) *backend.Response
	VerificationCounts(ctx context.Context, bearer string, from, to time.Time) *backend.Response
	PaymentHistory(ctx context.Context, bearer string, params url.Values) *backend.Response
}

// Dashboard is the merged response for a date range.
type Dashboard struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Metrics       json.RawMessage `json:"metrics"`
	Verifications json.RawMessage `json:"verifications"`
	Payments      json.RawMessage `json:"payments"`
}

// Service fetches and merges dashboard data.
type Service struct {
	backend Backend
}

// NewService builds an analytics service over the upstream client.
func NewService(b Backend) *Service {
	return &Service{backend: b}
}

// Dashboard fetches the three dashboard slices concurrently and merges them.
// The first failed fetch cancels the others and is returned as the error.
func (s *Service) Dashboard(ctx context.Context, bearer string, from, to time.Time) (*Dashboard, error) {
	if to.Before(from) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid date range")
	}

	result := &Dashboard{From: from, To: to}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp := s.backend.AnalyticsDashboard(gctx, bearer, from, to)
		return assign(&result.Metrics, resp)
	})
	g.Go(func() error {
		resp := s.backend.VerificationCounts(gctx, bearer, from, to)
		return assign(&result.Verifications, resp)
	})
	g.Go(func() error {
		params := url.Values{}
		params.Set("from", from.Format(time.RFC3339))
		params.Set("to", to.Format(time.RFC3339))
		resp := s.backend.PaymentHistory(gctx, bearer, params)
		return assign(&result.Payments, resp)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// assign copies a successful response's payload into the dashboard slot.
func assign(dst *json.RawMessage, resp *backend.Response) error {
	if !resp.Success {
		message := resp.Error
		if message == "" {
			message = resp.Message
		}
		return dErrors.New(dErrors.CodeUpstream, message)
	}
	*dst = resp.Data
	return nil
}
