// Package handler exposes the pricing-locale endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verigate/internal/geo"
	"verigate/pkg/platform/httputil"
)

// Resolver defines the locale lookup the handler needs.
type Resolver interface {
	Resolve(ctx context.Context) geo.Locale
}

// Handler wires the pricing endpoint to the geo resolver.
type Handler struct {
	resolver Resolver
	logger   *slog.Logger
}

// New constructs a pricing handler.
func New(resolver Resolver, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

// Register mounts the pricing endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/pricing/locale", h.HandleLocale)
}

// HandleLocale handles GET /api/pricing/locale. The resolver never fails:
// lookup problems surface as the USD default.
func (h *Handler) HandleLocale(w http.ResponseWriter, r *http.Request) {
	locale := h.resolver.Resolve(r.Context())
	h.logger.DebugContext(r.Context(), "pricing locale resolved",
		"country_code", locale.CountryCode,
		"currency", locale.Currency,
	)
	httputil.WriteData(w, http.StatusOK, locale)
}
