package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"verigate/internal/auth"
	"verigate/internal/backend"
	"verigate/internal/platform/middleware"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/platform/httputil"
)

//go:generate mockgen -source=handlers_auth.go -destination=mocks/auth-mocks.go -package=mocks AuthService

// AuthService is the slice of the auth service the handler depends on.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.Result, error)
	Register(ctx context.Context, email, password, firstName, lastName, role string) (*auth.Result, error)
	Logout(ctx context.Context, sessionID string) error
	Restore(ctx context.Context, sessionID string) (*auth.Result, error)
	RequestPasswordReset(ctx context.Context, email string) *backend.Response
	ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) *backend.Response
	VerifyTwoFactor(ctx context.Context, email, code string) *backend.Response
	ResendTwoFactor(ctx context.Context, email string) *backend.Response
}

// AuthHandler wires the authentication endpoints to the auth service.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(auth AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// RegisterPublic mounts the unauthenticated auth endpoints.
func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/password-reset/request", h.HandlePasswordResetRequest)
	r.Post("/auth/password-reset/confirm", h.HandlePasswordResetConfirm)
	r.Post("/auth/2fa/verify", h.HandleTwoFactorVerify)
	r.Post("/auth/2fa/resend", h.HandleTwoFactorResend)
}

// RegisterProtected mounts endpoints that require a live session.
func (h *AuthHandler) RegisterProtected(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/session", h.HandleSession)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// sessionPayload is the data half of login/register/session responses. The
// session ID doubles as the bearer credential for subsequent requests.
type sessionPayload struct {
	SessionID    string `json:"sessionId"`
	State        string `json:"state"`
	WarningShown bool   `json:"warningShown"`
	User         any    `json:"user"`
}

func sessionData(result *auth.Result) sessionPayload {
	return sessionPayload{
		SessionID:    result.Session.ID,
		State:        string(result.Session.State),
		WarningShown: result.Session.WarningShown,
		User:         result.Identity,
	}
}

// HandleLogin handles POST /auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[loginRequest](w, r, h.logger)
	if !ok {
		return
	}
	if !govalidator.IsEmail(req.Email) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "A valid email is required"))
		return
	}
	if req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Password is required"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, sessionData(result))
}

// HandleRegister handles POST /auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[registerRequest](w, r, h.logger)
	if !ok {
		return
	}
	if !govalidator.IsEmail(req.Email) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "A valid email is required"))
		return
	}
	if !govalidator.StringLength(req.Password, "8", "128") {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Password must be at least 8 characters"))
		return
	}

	result, err := h.auth.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName, req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, sessionData(result))
}

// HandleLogout handles POST /auth/logout. Logout is idempotent: an already
// dead session still gets a success response.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	info := middleware.GetSession(r.Context())
	if info == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication required"))
		return
	}
	if err := h.auth.Logout(r.Context(), info.SessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{Success: true, Message: "Logged out"})
}

// HandleSession handles GET /auth/session: the session status plus the
// identity decoded from the stored backend token.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	info := middleware.GetSession(r.Context())
	if info == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Authentication required"))
		return
	}
	result, err := h.auth.Restore(r.Context(), info.SessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, sessionData(result))
}

type emailRequest struct {
	Email string `json:"email"`
}

// HandlePasswordResetRequest handles POST /auth/password-reset/request.
func (h *AuthHandler) HandlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[emailRequest](w, r, h.logger)
	if !ok {
		return
	}
	writeBackendEnvelope(w, h.auth.RequestPasswordReset(r.Context(), req.Email))
}

type passwordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// HandlePasswordResetConfirm handles POST /auth/password-reset/confirm.
func (h *AuthHandler) HandlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[passwordResetConfirmRequest](w, r, h.logger)
	if !ok {
		return
	}
	writeBackendEnvelope(w, h.auth.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword))
}

type twoFactorRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// HandleTwoFactorVerify handles POST /auth/2fa/verify.
func (h *AuthHandler) HandleTwoFactorVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[twoFactorRequest](w, r, h.logger)
	if !ok {
		return
	}
	writeBackendEnvelope(w, h.auth.VerifyTwoFactor(r.Context(), req.Email, req.Code))
}

// HandleTwoFactorResend handles POST /auth/2fa/resend.
func (h *AuthHandler) HandleTwoFactorResend(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[emailRequest](w, r, h.logger)
	if !ok {
		return
	}
	writeBackendEnvelope(w, h.auth.ResendTwoFactor(r.Context(), req.Email))
}
