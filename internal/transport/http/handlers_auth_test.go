package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"verigate/internal/auth"
	"verigate/internal/backend"
	"verigate/internal/platform/middleware"
	"verigate/internal/session"
	"verigate/internal/token"
	"verigate/internal/transport/http/mocks"
	dErrors "verigate/pkg/domain-errors"
	"verigate/pkg/platform/httputil"
)

type AuthHandlerSuite struct {
	suite.Suite
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

// fixedAuthorizer satisfies middleware.SessionAuthorizer for protected
// routes without dragging the whole session stack into handler tests.
type fixedAuthorizer struct {
	info *middleware.SessionInfo
	err  error
}

func (f *fixedAuthorizer) Authorize(ctx context.Context, bearer string) (*middleware.SessionInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func authResult(sessionID, role string) *auth.Result {
	now := time.Now()
	return &auth.Result{
		Session: &session.Session{
			ID:           sessionID,
			UserID:       "usr_1",
			State:        session.StateActive,
			LastActivity: now,
			CreatedAt:    now,
		},
		Identity: &token.Identity{
			ID:    "usr_1",
			Email: "jane.smith@university.edu.ng",
			Role:  role,
		},
	}
}

func (s *AuthHandlerSuite) newRouter(t *testing.T, authorizer middleware.SessionAuthorizer) (*mocks.MockAuthService, chi.Router) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockAuthService(ctrl)
	handler := NewAuthHandler(mockService, slog.New(slog.DiscardHandler))

	r := chi.NewRouter()
	handler.RegisterPublic(r)
	if authorizer != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(authorizer, slog.New(slog.DiscardHandler)))
			handler.RegisterProtected(r)
		})
	}
	return mockService, r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, header http.Header) (*httptest.ResponseRecorder, httputil.Envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope httputil.Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func (s *AuthHandlerSuite) TestLogin() {
	s.T().Run("success returns session payload", func(t *testing.T) {
		mockService, router := s.newRouter(t, nil)
		mockService.EXPECT().
			Login(gomock.Any(), "jane.smith@university.edu.ng", "TestPassword123!").
			Return(authResult("sess_1", token.RoleInstitutionAdmin), nil)

		rec, envelope := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
			"email":    "jane.smith@university.edu.ng",
			"password": "TestPassword123!",
		}, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, envelope.Success)

		var payload struct {
			SessionID string `json:"sessionId"`
			State     string `json:"state"`
			User      struct {
				Role string `json:"role"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(envelope.Data, &payload))
		assert.Equal(t, "sess_1", payload.SessionID)
		assert.Equal(t, "active", payload.State)
		assert.Equal(t, token.RoleInstitutionAdmin, payload.User.Role)
	})

	s.T().Run("invalid email rejected before service call", func(t *testing.T) {
		mockService, router := s.newRouter(t, nil)
		mockService.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rec, envelope := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
			"email":    "not-an-email",
			"password": "x",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, envelope.Success)
	})

	s.T().Run("backend rejection surfaces 401 with message", func(t *testing.T) {
		mockService, router := s.newRouter(t, nil)
		mockService.EXPECT().
			Login(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password"))

		rec, envelope := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
			"email":    "jane.smith@university.edu.ng",
			"password": "wrong",
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", envelope.Error)
	})

	s.T().Run("malformed body rejected", func(t *testing.T) {
		mockService, router := s.newRouter(t, nil)
		mockService.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{bad-json")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func (s *AuthHandlerSuite) TestRegister() {
	s.T().Run("success returns 201", func(t *testing.T) {
		mockService, router := s.newRouter(t, nil)
		mockService.EXPECT().
			Register(gomock.Any(), "new@example.com", "LongEnough1!", "Ada", "Obi", token.RoleEmployer).
			Return(authResult("sess_2", token.RoleEmployer), nil)

		rec, envelope := doJSON(t, router, http.MethodPost, "/auth/register", map[string]string{
			"email":     "new@example.com",
			"password":  "LongEnough1!",
			"firstName": "Ada",
			"lastName":  "Obi",
			"role":      token.RoleEmployer,
		}, nil)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, envelope.Success)
	})

	s.T().Run("short password rejected", func(t *testing.T) {
		mockService, router := s.newRouter(t, nil)
		mockService.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rec, _ := doJSON(t, router, http.MethodPost, "/auth/register", map[string]string{
			"email":    "new@example.com",
			"password": "short",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	s.T().Run("invalid role bubbles up", func(t *testing.T) {
		mockService, router := s.newRouter(t, nil)
		mockService.EXPECT().
			Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), "individual").
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "invalid role"))

		rec, envelope := doJSON(t, router, http.MethodPost, "/auth/register", map[string]string{
			"email":    "new@example.com",
			"password": "LongEnough1!",
			"role":     "individual",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid role", envelope.Error)
	})
}

func (s *AuthHandlerSuite) TestProtectedSessionRoutes() {
	header := http.Header{"Authorization": []string{"Bearer sess_1"}}
	authorizer := &fixedAuthorizer{info: &middleware.SessionInfo{
		SessionID: "sess_1",
		UserID:    "usr_1",
		Role:      token.RoleInstitutionAdmin,
		Token:     "upstream-token",
	}}

	s.T().Run("session status returns restored payload", func(t *testing.T) {
		mockService, router := s.newRouter(t, authorizer)
		mockService.EXPECT().
			Restore(gomock.Any(), "sess_1").
			Return(authResult("sess_1", token.RoleInstitutionAdmin), nil)

		rec, envelope := doJSON(t, router, http.MethodGet, "/auth/session", nil, header)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, envelope.Success)
	})

	s.T().Run("logout delegates session id", func(t *testing.T) {
		mockService, router := s.newRouter(t, authorizer)
		mockService.EXPECT().Logout(gomock.Any(), "sess_1").Return(nil)

		rec, envelope := doJSON(t, router, http.MethodPost, "/auth/logout", nil, header)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, envelope.Success)
	})

	s.T().Run("missing bearer gets redirect hint", func(t *testing.T) {
		_, router := s.newRouter(t, authorizer)

		req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "/login", body["redirect"])
	})

	s.T().Run("expired session gets redirect hint", func(t *testing.T) {
		expired := &fixedAuthorizer{err: dErrors.New(dErrors.CodeUnauthorized, "Session expired")}
		_, router := s.newRouter(t, expired)

		req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
		req.Header.Set("Authorization", "Bearer sess_dead")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Session expired", body["error"])
		assert.Equal(t, "/login", body["redirect"])
	})
}

func (s *AuthHandlerSuite) TestPassThroughs() {
	s.T().Run("password reset request forwards backend envelope", func(t *testing.T) {
		mockService, router := s.newRouter(t, nil)
		mockService.EXPECT().
			RequestPasswordReset(gomock.Any(), "jane@example.com").
			Return(&backend.Response{Success: true, Message: "Reset email sent"})

		rec, envelope := doJSON(t, router, http.MethodPost, "/auth/password-reset/request", map[string]string{
			"email": "jane@example.com",
		}, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, envelope.Success)
		assert.Equal(t, "Reset email sent", envelope.Message)
	})

	s.T().Run("2fa verify forwards failure envelope", func(t *testing.T) {
		mockService, router := s.newRouter(t, nil)
		mockService.EXPECT().
			VerifyTwoFactor(gomock.Any(), "jane@example.com", "000000").
			Return(&backend.Response{Success: false, Error: "Invalid verification code"})

		rec, envelope := doJSON(t, router, http.MethodPost, "/auth/2fa/verify", map[string]string{
			"email": "jane@example.com",
			"code":  "000000",
		}, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, envelope.Success)
		assert.Equal(t, "Invalid verification code", envelope.Error)
	})
}
