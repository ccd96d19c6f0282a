package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	dErrors "verigate/pkg/domain-errors"
)

// SessionInfo is what an authorizer hands back for a live session.
type SessionInfo struct {
	SessionID string
	UserID    string
	Role      string
	// Token is the upstream bearer token attached when proxying to the
	// backend API.
	Token string
}

// SessionAuthorizer resolves a bearer credential into a live session. The
// call doubles as the activity signal: it runs before any handler, so
// handler-level behavior can never swallow it.
type SessionAuthorizer interface {
	Authorize(ctx context.Context, bearer string) (*SessionInfo, error)
}

type contextKeySession struct{}

// GetSession retrieves the authenticated session info from the context, or
// nil outside RequireSession.
func GetSession(ctx context.Context) *SessionInfo {
	info, ok := ctx.Value(contextKeySession{}).(*SessionInfo)
	if !ok {
		return nil
	}
	return info
}

// RequireSession rejects requests without a live session. Expired or missing
// sessions get the normalized envelope plus a login redirect hint so clients
// can route the user back to the sign-in screen.
func RequireSession(authorizer SessionAuthorizer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || bearer == "" {
				logger.WarnContext(ctx, "unauthorized access - missing bearer",
					"path", r.URL.Path,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Authentication required")
				return
			}

			info, err := authorizer.Authorize(ctx, bearer)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - session rejected",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, dErrors.MessageOf(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKeySession{}, info)))
		})
	}
}

// RequireRole gates a subtree to the given roles. Must run inside
// RequireSession.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := GetSession(r.Context())
			if info == nil {
				writeUnauthorized(w, "Authentication required")
				return
			}
			if _, ok := allowed[info.Role]; !ok {
				logger.WarnContext(r.Context(), "forbidden - role not allowed",
					"role", info.Role,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"success":false,"error":"You do not have permission to access this resource"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":  false,
		"error":    message,
		"redirect": "/login",
	})
}
