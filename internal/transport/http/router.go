// Package httptransport assembles the gateway's HTTP surface: auth and
// session endpoints, payment and pricing endpoints, and the proxied backend
// resource groups. Handlers delegate to domain services; transport concerns
// stay here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"verigate/internal/backend"
	"verigate/internal/platform/middleware"
	"verigate/pkg/platform/httputil"
)

// Registrar mounts a group of routes, matching every module handler's
// Register method.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router composes.
type Deps struct {
	Auth       *AuthHandler
	Proxy      *ProxyHandler
	Analytics  *AnalyticsHandler
	Payments   Registrar
	// Transactions is the operator view of the local payment log; it mounts
	// inside the session-protected group.
	Transactions Registrar
	Pricing      Registrar
	Authorizer   middleware.SessionAuthorizer
	// LoginThrottle, when set, wraps the unauthenticated auth endpoints.
	LoginThrottle func(http.Handler) http.Handler
	Health        func() error
	Logger        *slog.Logger
}

// NewRouter wires the full middleware chain and route tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Unauthenticated auth surface, throttled when a limiter is configured.
	r.Group(func(r chi.Router) {
		if deps.LoginThrottle != nil {
			r.Use(deps.LoginThrottle)
		}
		deps.Auth.RegisterPublic(r)
	})

	deps.Payments.Register(r)
	deps.Pricing.Register(r)

	// Everything below requires a live session; the authorizer's Touch is
	// also the activity signal that keeps the session from idling out.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(deps.Authorizer, deps.Logger))
		deps.Auth.RegisterProtected(r)
		deps.Proxy.Register(r)
		deps.Analytics.Register(r)
		if deps.Transactions != nil {
			deps.Transactions.Register(r)
		}
	})

	return r
}

func handleHealth(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// writeBackendEnvelope forwards a normalized backend response. The transport
// status is 200 for pass-throughs; callers branch on the envelope's success
// flag, mirroring how the backend API is consumed directly.
func writeBackendEnvelope(w http.ResponseWriter, resp *backend.Response) {
	httputil.WriteJSON(w, http.StatusOK, resp)
}
