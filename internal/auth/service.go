// Package auth is the single source of truth for "who is logged in". It
// orchestrates the backend auth endpoints, the token store, and the session
// manager so the three always move together.
package auth

import (
	"context"
	"log/slog"

	"verigate/internal/backend"
	platformmetrics "verigate/internal/platform/metrics"
	"verigate/internal/platform/middleware"
	"verigate/internal/session"
	"verigate/internal/token"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/platform/audit"
)

// Fixed user-facing messages for malformed backend responses. The envelope
// was syntactically fine but the auth payload shape was not.
const (
	msgInvalidResponse     = "Invalid response from server"
	msgInvalidAuthResponse = "Invalid authentication response"
	msgLoginFailed         = "Login failed. Please check your credentials and try again."
	msgRegisterFailed      = "Registration failed. Please try again."
)

// Backend is the slice of the API client this service needs.
type Backend interface {
	Login(ctx context.Context, req backend.LoginRequest) *backend.Response
	Register(ctx context.Context, req backend.RegisterRequest) *backend.Response
	RequestPasswordReset(ctx context.Context, email string) *backend.Response
	ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) *backend.Response
	VerifyTwoFactor(ctx context.Context, email, code string) *backend.Response
	ResendTwoFactor(ctx context.Context, email string) *backend.Response
}

// Sessions is the slice of the session manager this service needs.
type Sessions interface {
	Start(ctx context.Context, identity token.Identity) (*session.Session, error)
	Touch(ctx context.Context, id string) (*session.Session, error)
	End(ctx context.Context, id string) error
	Find(ctx context.Context, id string) (*session.Session, error)
}

// Service implements login, registration, logout, and session authorization.
type Service struct {
	backend  Backend
	sessions Sessions
	tokens   token.Store
	audit    audit.Publisher
	logger   *slog.Logger
	metrics  *platformmetrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithAudit attaches an audit publisher.
func WithAudit(p audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithMetrics attaches gateway metrics.
func WithMetrics(m *platformmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(be Backend, sessions Sessions, tokens token.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		backend:  be,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is a successful login or registration: a live session plus the
// identity decoded (advisorily) from the backend token.
type Result struct {
	Session  *session.Session
	Identity *token.Identity
}

// Login authenticates against the backend and, on success, persists the
// returned token and starts a session. Failure surfaces the backend's own
// message when it provides one.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	resp := s.backend.Login(ctx, backend.LoginRequest{Email: email, Password: password})
	if !resp.Success {
		s.observeLogin("failure")
		s.emit(ctx, audit.ActionLoginFailed, "", "", email, resp.Error)
		return nil, dErrors.New(dErrors.CodeUnauthorized, failureMessage(resp, msgLoginFailed))
	}

	result, err := s.establishSession(ctx, resp)
	if err != nil {
		s.observeLogin("failure")
		return nil, err
	}

	s.observeLogin("success")
	s.emit(ctx, audit.ActionLogin, result.Identity.ID, result.Session.ID, email, "")
	return result, nil
}

// Register creates an account through the backend with the same session
// contract as Login.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName, role string) (*Result, error) {
	if !validRegistrationRole(role) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid role")
	}

	resp := s.backend.Register(ctx, backend.RegisterRequest{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
	})
	if !resp.Success {
		return nil, dErrors.New(dErrors.CodeBadRequest, failureMessage(resp, msgRegisterFailed))
	}

	result, err := s.establishSession(ctx, resp)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.ActionRegister, result.Identity.ID, result.Session.ID, email, "")
	return result, nil
}

// establishSession extracts and verifies the shape of the auth payload, then
// wires token slot and session together.
func (s *Service) establishSession(ctx context.Context, resp *backend.Response) (*Result, error) {
	var data backend.AuthData
	if err := resp.DecodeData(&data); err != nil || data.Tokens.AccessToken == "" {
		return nil, dErrors.New(dErrors.CodeUpstream, msgInvalidResponse)
	}

	identity, err := token.Decode(data.Tokens.AccessToken)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUpstream, msgInvalidAuthResponse)
	}

	sess, err := s.sessions.Start(ctx, *identity)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, sess.ID, data.Tokens.AccessToken); err != nil {
		// Keep token slot and session consistent: no half-open sessions.
		_ = s.sessions.End(ctx, sess.ID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist token")
	}

	return &Result{Session: sess, Identity: identity}, nil
}

// Logout tears down local state unconditionally. There is no backend call to
// fail: clearing the token and session always succeeds from the user's view.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	sess, findErr := s.sessions.Find(ctx, sessionID)
	if err := s.sessions.End(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "session teardown failed during logout",
			"session_id", sessionID, "error", err)
	}
	if findErr == nil {
		s.emit(ctx, audit.ActionLogout, sess.UserID, sess.ID, sess.Identity.Email, "")
	}
	return nil
}

// Restore re-derives the identity for an existing session from its persisted
// token, the process-start path of the original design. An expired or
// undecodable token clears everything and reports the user logged out.
func (s *Service) Restore(ctx context.Context, sessionID string) (*Result, error) {
	sess, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}
	if sess.State == session.StateExpired {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Session expired")
	}

	bearer, err := s.tokens.Load(ctx, sessionID)
	if err != nil {
		_ = s.sessions.End(ctx, sessionID)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}

	identity, err := token.Decode(bearer)
	if err != nil {
		// Terminal: no refresh rotation exists, expiry forces re-login.
		_ = s.sessions.End(ctx, sessionID)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Session expired")
	}

	return &Result{Session: sess, Identity: identity}, nil
}

// Authorize implements middleware.SessionAuthorizer. Each authenticated
// request counts as activity, so this is also where the idle clock resets.
func (s *Service) Authorize(ctx context.Context, bearer string) (*middleware.SessionInfo, error) {
	sess, err := s.sessions.Touch(ctx, bearer)
	if err != nil {
		return nil, err
	}

	upstream, err := s.tokens.Load(ctx, sess.ID)
	if err != nil {
		_ = s.sessions.End(ctx, sess.ID)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}
	if _, err := token.Decode(upstream); err != nil {
		_ = s.sessions.End(ctx, sess.ID)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Session expired")
	}

	return &middleware.SessionInfo{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Role:      sess.Identity.Role,
		Token:     upstream,
	}, nil
}

// Password reset and 2FA are pass-throughs: the backend owns the flows, the
// gateway only normalizes their responses.

func (s *Service) RequestPasswordReset(ctx context.Context, email string) *backend.Response {
	return s.backend.RequestPasswordReset(ctx, email)
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) *backend.Response {
	return s.backend.ConfirmPasswordReset(ctx, resetToken, newPassword)
}

func (s *Service) VerifyTwoFactor(ctx context.Context, email, code string) *backend.Response {
	return s.backend.VerifyTwoFactor(ctx, email, code)
}

func (s *Service) ResendTwoFactor(ctx context.Context, email string) *backend.Response {
	return s.backend.ResendTwoFactor(ctx, email)
}

func failureMessage(resp *backend.Response, fallback string) string {
	if resp.Error != "" {
		return resp.Error
	}
	if resp.Message != "" {
		return resp.Message
	}
	return fallback
}

func validRegistrationRole(role string) bool {
	switch role {
	case token.RoleUser, token.RoleEmployer, token.RoleInstitutionAdmin:
		return true
	default:
		return false
	}
}

func (s *Service) observeLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, userID, sessionID, email, detail string) {
	if s.audit == nil {
		return
	}
	event := audit.NewEvent(action)
	event.UserID = userID
	event.SessionID = sessionID
	event.Email = email
	event.Detail = detail
	event.RequestID = middleware.GetRequestID(ctx)
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event", "action", action, "error", err)
	}
}
