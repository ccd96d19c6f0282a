package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"verigate/internal/backend"
	"verigate/internal/platform/middleware"
	"verigate/internal/token"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/platform/httputil"
)

// BackendProxy is the slice of the backend client the proxied resource
// groups depend on. Every call carries the session's stored backend token.
type BackendProxy interface {
	ListUsers(ctx context.Context, bearer string, params url.Values) *backend.Response
	GetUser(ctx context.Context, bearer, userID string) *backend.Response
	UpdateUser(ctx context.Context, bearer, userID string, fields map[string]any) *backend.Response
	DeleteUser(ctx context.Context, bearer, userID string) *backend.Response
	SuspendUser(ctx context.Context, bearer, userID string) *backend.Response
	ReactivateUser(ctx context.Context, bearer, userID string) *backend.Response

	RegisterInstitution(ctx context.Context, bearer string, fields map[string]any) *backend.Response
	ListInstitutions(ctx context.Context, bearer string, params url.Values) *backend.Response
	GetInstitution(ctx context.Context, bearer, institutionID string) *backend.Response
	UpdateInstitution(ctx context.Context, bearer, institutionID string, fields map[string]any) *backend.Response
	DeleteInstitution(ctx context.Context, bearer, institutionID string) *backend.Response
	ApproveInstitution(ctx context.Context, bearer, institutionID string) *backend.Response
	RejectInstitution(ctx context.Context, bearer, institutionID string, reason string) *backend.Response
	InstitutionCredentials(ctx context.Context, bearer, institutionID string, params url.Values) *backend.Response
	InstitutionVerificationRequests(ctx context.Context, bearer, institutionID string, params url.Values) *backend.Response
	BulkUploadCredentials(ctx context.Context, bearer, institutionID string, records []map[string]any) *backend.Response
	InstitutionActivityLogs(ctx context.Context, bearer, institutionID string, params url.Values) *backend.Response

	GetSubscription(ctx context.Context, bearer string) *backend.Response
	CancelSubscription(ctx context.Context, bearer string) *backend.Response
	ReactivateSubscription(ctx context.Context, bearer string) *backend.Response
	PaymentHistory(ctx context.Context, bearer string, params url.Values) *backend.Response
}

// ProxyHandler exposes the backend resource groups through the gateway.
type ProxyHandler struct {
	backend BackendProxy
	logger  *slog.Logger
}

// NewProxyHandler constructs the proxy handler.
func NewProxyHandler(b BackendProxy, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{backend: b, logger: logger}
}

// Register mounts the proxied resource groups. The surrounding router must
// already enforce RequireSession.
func (h *ProxyHandler) Register(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Use(middleware.RequireRole(h.logger, token.RoleAdmin, token.RoleSuperAdmin))
		r.Get("/", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.ListUsers(ctx, bearer, r.URL.Query())
		}))
		r.Get("/{userID}", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.GetUser(ctx, bearer, chi.URLParam(r, "userID"))
		}))
		r.Patch("/{userID}", h.withFields(func(ctx context.Context, bearer string, r *http.Request, fields map[string]any) *backend.Response {
			return h.backend.UpdateUser(ctx, bearer, chi.URLParam(r, "userID"), fields)
		}))
		r.Delete("/{userID}", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.DeleteUser(ctx, bearer, chi.URLParam(r, "userID"))
		}))
		r.Post("/{userID}/suspend", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.SuspendUser(ctx, bearer, chi.URLParam(r, "userID"))
		}))
		r.Post("/{userID}/reactivate", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.ReactivateUser(ctx, bearer, chi.URLParam(r, "userID"))
		}))
	})

	r.Route("/api/institutions", func(r chi.Router) {
		r.Post("/", h.withFields(func(ctx context.Context, bearer string, r *http.Request, fields map[string]any) *backend.Response {
			return h.backend.RegisterInstitution(ctx, bearer, fields)
		}))
		r.Get("/", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.ListInstitutions(ctx, bearer, r.URL.Query())
		}))
		r.Get("/{institutionID}", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.GetInstitution(ctx, bearer, chi.URLParam(r, "institutionID"))
		}))
		r.Patch("/{institutionID}", h.withFields(func(ctx context.Context, bearer string, r *http.Request, fields map[string]any) *backend.Response {
			return h.backend.UpdateInstitution(ctx, bearer, chi.URLParam(r, "institutionID"), fields)
		}))
		r.Delete("/{institutionID}", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.DeleteInstitution(ctx, bearer, chi.URLParam(r, "institutionID"))
		}))
		r.Get("/{institutionID}/credentials", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.InstitutionCredentials(ctx, bearer, chi.URLParam(r, "institutionID"), r.URL.Query())
		}))
		r.Get("/{institutionID}/verification-requests", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.InstitutionVerificationRequests(ctx, bearer, chi.URLParam(r, "institutionID"), r.URL.Query())
		}))
		r.Get("/{institutionID}/activity-logs", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.InstitutionActivityLogs(ctx, bearer, chi.URLParam(r, "institutionID"), r.URL.Query())
		}))
		r.Post("/{institutionID}/credentials/bulk", h.HandleBulkUpload)

		// Approval is an operator action.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.logger, token.RoleAdmin, token.RoleSuperAdmin))
			r.Post("/{institutionID}/approve", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
				return h.backend.ApproveInstitution(ctx, bearer, chi.URLParam(r, "institutionID"))
			}))
			r.Post("/{institutionID}/reject", h.HandleRejectInstitution)
		})
	})

	r.Route("/api/subscriptions", func(r chi.Router) {
		r.Get("/", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.GetSubscription(ctx, bearer)
		}))
		r.Post("/cancel", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.CancelSubscription(ctx, bearer)
		}))
		r.Post("/reactivate", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.ReactivateSubscription(ctx, bearer)
		}))
		r.Get("/payment-history", h.withBearer(func(ctx context.Context, bearer string, r *http.Request) *backend.Response {
			return h.backend.PaymentHistory(ctx, bearer, r.URL.Query())
		}))
	})
}

type proxyCall func(ctx context.Context, bearer string, r *http.Request) *backend.Response

type proxyFieldsCall func(ctx context.Context, bearer string, r *http.Request, fields map[string]any) *backend.Response

// withBearer resolves the session's backend token and forwards the call.
func (h *ProxyHandler) withBearer(call proxyCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := middleware.GetSession(r.Context())
		if info == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication required"))
			return
		}
		writeBackendEnvelope(w, call(r.Context(), info.Token, r))
	}
}

// withFields additionally decodes an arbitrary JSON object body.
func (h *ProxyHandler) withFields(call proxyFieldsCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := middleware.GetSession(r.Context())
		if info == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication required"))
			return
		}
		fields, ok := httputil.DecodeJSON[map[string]any](w, r, h.logger)
		if !ok {
			return
		}
		writeBackendEnvelope(w, call(r.Context(), info.Token, r, fields))
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// HandleRejectInstitution handles POST /api/institutions/{id}/reject.
func (h *ProxyHandler) HandleRejectInstitution(w http.ResponseWriter, r *http.Request) {
	info := middleware.GetSession(r.Context())
	if info == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication required"))
		return
	}
	req, ok := httputil.DecodeJSON[rejectRequest](w, r, h.logger)
	if !ok {
		return
	}
	resp := h.backend.RejectInstitution(r.Context(), info.Token, chi.URLParam(r, "institutionID"), req.Reason)
	writeBackendEnvelope(w, resp)
}

type bulkUploadRequest struct {
	Records []map[string]any `json:"records"`
}

// HandleBulkUpload handles POST /api/institutions/{id}/credentials/bulk.
func (h *ProxyHandler) HandleBulkUpload(w http.ResponseWriter, r *http.Request) {
	info := middleware.GetSession(r.Context())
	if info == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication required"))
		return
	}
	req, ok := httputil.DecodeJSON[bulkUploadRequest](w, r, h.logger)
	if !ok {
		return
	}
	if len(req.Records) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "At least one record is required"))
		return
	}
	resp := h.backend.BulkUploadCredentials(r.Context(), info.Token, chi.URLParam(r, "institutionID"), req.Records)
	writeBackendEnvelope(w, resp)
}
