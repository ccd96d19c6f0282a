package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"verigate/internal/analytics"
	"verigate/internal/platform/middleware"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/platform/httputil"
)

// AnalyticsService is the slice of the analytics service the handler needs.
type AnalyticsService interface {
	Dashboard(ctx context.Context, bearer string, from, to time.Time) (*analytics.Dashboard, error)
}

// AnalyticsHandler exposes the aggregated dashboard endpoint.
type AnalyticsHandler struct {
	analytics AnalyticsService
	logger    *slog.Logger
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(svc AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: svc, logger: logger}
}

// Register mounts the dashboard endpoint. Requires RequireSession upstream.
func (h *AnalyticsHandler) Register(r chi.Router) {
	r.Get("/api/analytics/dashboard", h.HandleDashboard)
}

// HandleDashboard handles GET /api/analytics/dashboard?from=...&to=...
// (RFC 3339). The range defaults to the trailing 30 days.
func (h *AnalyticsHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	info := middleware.GetSession(r.Context())
	if info == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication required"))
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "from must be RFC 3339"))
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "to must be RFC 3339"))
			return
		}
	}

	dashboard, err := h.analytics.Dashboard(r.Context(), info.Token, from, to)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard aggregation failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, dashboard)
}
