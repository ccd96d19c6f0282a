package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"verigate/internal/platform/middleware"
	"verigate/pkg/platform/audit"
	"verigate/pkg/platform/httputil"
)

const msgThrottled = "Too many requests. Please wait a moment and try again."

// Middleware throttles requests per client IP and path.
type Middleware struct {
	limiter Limiter
	limit   int
	window  time.Duration
	logger  *slog.Logger
	audit   audit.Publisher
}

// Option configures the middleware.
type Option func(*Middleware)

// WithAudit attaches an audit publisher for throttle events.
func WithAudit(p audit.Publisher) Option {
	return func(m *Middleware) { m.audit = p }
}

// NewMiddleware builds a throttle with the given per-window request limit.
func NewMiddleware(limiter Limiter, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler wraps next with the throttle.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := clientIP(r) + ":" + r.URL.Path

		result, err := m.limiter.Allow(ctx, key, m.limit, m.window)
		if err != nil {
			// Fail open: a broken limiter must not lock everyone out.
			m.logger.ErrorContext(ctx, "rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !result.Allowed {
			m.logger.WarnContext(ctx, "request throttled",
				"path", r.URL.Path,
				"client_ip", clientIP(r),
			)
			m.emit(r)
			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Envelope{
				Success: false,
				Error:   msgThrottled,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) emit(r *http.Request) {
	if m.audit == nil {
		return
	}
	event := audit.NewEvent(audit.ActionRateLimited)
	event.Detail = r.URL.Path
	event.RequestID = middleware.GetRequestID(r.Context())
	if err := m.audit.Publish(r.Context(), event); err != nil {
		m.logger.WarnContext(r.Context(), "publish throttle event", "error", err)
	}
}

// clientIP extracts the originating client address, trusting the first
// X-Forwarded-For hop when present.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
