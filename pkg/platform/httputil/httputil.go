// Package httputil centralizes JSON response writing so every handler speaks
// the same {success, data, error} envelope.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "verigate/pkg/domain-errors"
)

const maxRequestBodyBytes = 1 << 20

// Envelope is the normalized response shape returned to browsers.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteData wraps data in a success envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "encode response"))
		return
	}
	WriteJSON(w, status, Envelope{Success: true, Data: raw})
}

// WriteRaw passes an upstream JSON body through untouched.
func WriteRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// WriteError maps a domain error to its HTTP status and error envelope.
// Internal error details never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := dErrors.MessageOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeInvariantViolation {
		message = "Something went wrong. Please try again."
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), Envelope{Success: false, Error: message})
}

// DecodeJSON decodes a request body into T, rejecting unknown payloads larger
// than 1MB. A decode failure is reported to the client as a bad request.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "malformed request body", "path", r.URL.Path, "error", err)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid request body"))
		var zero T
		return zero, false
	}
	return req, true
}
