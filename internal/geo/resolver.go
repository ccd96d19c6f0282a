// Package geo resolves a caller's pricing locale from an IP-geolocation
// service. Lookup failures are absorbed: pricing falls back to USD rather
// than blocking checkout.
package geo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"verigate/pkg/platform/circuit"
)

const (
	maxLookupResponseBytes = 64 << 10

	// How often an open circuit lets a probe through. The breaker has no
	// timer, so probes are what close it again.
	probeEvery = 8
)

// Locale is the resolved pricing locale for a caller.
type Locale struct {
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	Currency    string `json:"currency"`
}

// DefaultLocale is returned whenever the lookup fails for any reason.
var DefaultLocale = Locale{Country: "Unknown", CountryCode: "XX", Currency: "USD"}

// Resolver performs one-shot lookups against the configured geolocation
// service.
type Resolver struct {
	serviceURL string
	httpClient *http.Client
	logger     *slog.Logger

	// breaker skips the lookup entirely while the geolocation service is
	// down, so pricing requests stop eating the full client timeout.
	breaker *circuit.Breaker
	calls   atomic.Uint64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = hc
	}
}

// NewResolver builds a resolver for the given lookup URL.
func NewResolver(serviceURL string, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
		breaker:    circuit.New("geolocation"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type lookupResponse struct {
	Country     string `json:"country_name"`
	CountryCode string `json:"country_code"`
}

// Resolve looks up the caller's country and maps it to a pricing currency:
// Nigeria pays in NGN, everywhere else in USD. Any failure returns
// DefaultLocale with a nil error. Repeated failures open a circuit so the
// lookup is skipped while the service is down, with periodic probes.
func (r *Resolver) Resolve(ctx context.Context) Locale {
	if r.breaker.IsOpen() && r.calls.Add(1)%probeEvery != 0 {
		return DefaultLocale
	}

	locale, ok := r.lookup(ctx)
	if !ok {
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.logger.WarnContext(ctx, "geolocation circuit opened", "url", r.serviceURL)
		}
		return DefaultLocale
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "geolocation circuit closed")
	}
	return locale
}

func (r *Resolver) lookup(ctx context.Context) (Locale, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.serviceURL, nil)
	if err != nil {
		r.logger.WarnContext(ctx, "build geolocation request", "error", err)
		return DefaultLocale, false
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.WarnContext(ctx, "geolocation lookup failed", "error", err)
		return DefaultLocale, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.WarnContext(ctx, "geolocation lookup failed", "status", resp.StatusCode)
		return DefaultLocale, false
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupResponseBytes))
	if err != nil {
		r.logger.WarnContext(ctx, "read geolocation response", "error", err)
		return DefaultLocale, false
	}

	var lookup lookupResponse
	if err := json.Unmarshal(raw, &lookup); err != nil {
		r.logger.WarnContext(ctx, "decode geolocation response", "error", err)
		return DefaultLocale, false
	}
	if lookup.CountryCode == "" {
		return DefaultLocale, false
	}

	locale := Locale{
		Country:     lookup.Country,
		CountryCode: lookup.CountryCode,
		Currency:    "USD",
	}
	if lookup.CountryCode == "NG" {
		locale.Currency = "NGN"
	}
	return locale, true
}
