package middleware

import (
	"log/slog"
	"net/http"
)

// Recoverer is the top-level boundary for handler panics: log with stack
// context and answer with the generic recovery envelope instead of crashing
// the connection.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "handler panic",
						"panic", rec,
						"path", r.URL.Path,
						"request_id", GetRequestID(r.Context()),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"success":false,"error":"Something went wrong. Please try again."}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
