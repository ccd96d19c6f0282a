package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verigate/internal/backend"
	"verigate/internal/platform/middleware"
	"verigate/internal/token"
)

// stubProxy records the last proxied call and answers with a fixed envelope.
type stubProxy struct {
	lastCall   string
	lastBearer string
	lastParams url.Values
	lastFields map[string]any
	resp       *backend.Response
}

func (s *stubProxy) answer(call, bearer string) *backend.Response {
	s.lastCall = call
	s.lastBearer = bearer
	return s.resp
}

func (s *stubProxy) ListUsers(ctx context.Context, bearer string, params url.Values) *backend.Response {
	s.lastParams = params
	return s.answer("ListUsers", bearer)
}
func (s *stubProxy) GetUser(ctx context.Context, bearer, userID string) *backend.Response {
	return s.answer("GetUser:"+userID, bearer)
}
func (s *stubProxy) UpdateUser(ctx context.Context, bearer, userID string, fields map[string]any) *backend.Response {
	s.lastFields = fields
	return s.answer("UpdateUser:"+userID, bearer)
}
func (s *stubProxy) DeleteUser(ctx context.Context, bearer, userID string) *backend.Response {
	return s.answer("DeleteUser:"+userID, bearer)
}
func (s *stubProxy) SuspendUser(ctx context.Context, bearer, userID string) *backend.Response {
	return s.answer("SuspendUser:"+userID, bearer)
}
func (s *stubProxy) ReactivateUser(ctx context.Context, bearer, userID string) *backend.Response {
	return s.answer("ReactivateUser:"+userID, bearer)
}
func (s *stubProxy) RegisterInstitution(ctx context.Context, bearer string, fields map[string]any) *backend.Response {
	s.lastFields = fields
	return s.answer("RegisterInstitution", bearer)
}
func (s *stubProxy) ListInstitutions(ctx context.Context, bearer string, params url.Values) *backend.Response {
	s.lastParams = params
	return s.answer("ListInstitutions", bearer)
}
func (s *stubProxy) GetInstitution(ctx context.Context, bearer, institutionID string) *backend.Response {
	return s.answer("GetInstitution:"+institutionID, bearer)
}
func (s *stubProxy) UpdateInstitution(ctx context.Context, bearer, institutionID string, fields map[string]any) *backend.Response {
	s.lastFields = fields
	return s.answer("UpdateInstitution:"+institutionID, bearer)
}
func (s *stubProxy) DeleteInstitution(ctx context.Context, bearer, institutionID string) *backend.Response {
	return s.answer("DeleteInstitution:"+institutionID, bearer)
}
func (s *stubProxy) ApproveInstitution(ctx context.Context, bearer, institutionID string) *backend.Response {
	return s.answer("ApproveInstitution:"+institutionID, bearer)
}
func (s *stubProxy) RejectInstitution(ctx context.Context, bearer, institutionID string, reason string) *backend.Response {
	return s.answer("RejectInstitution:"+institutionID+":"+reason, bearer)
}
func (s *stubProxy) InstitutionCredentials(ctx context.Context, bearer, institutionID string, params url.Values) *backend.Response {
	s.lastParams = params
	return s.answer("InstitutionCredentials:"+institutionID, bearer)
}
func (s *stubProxy) InstitutionVerificationRequests(ctx context.Context, bearer, institutionID string, params url.Values) *backend.Response {
	s.lastParams = params
	return s.answer("InstitutionVerificationRequests:"+institutionID, bearer)
}
func (s *stubProxy) BulkUploadCredentials(ctx context.Context, bearer, institutionID string, records []map[string]any) *backend.Response {
	return s.answer("BulkUploadCredentials:"+institutionID, bearer)
}
func (s *stubProxy) InstitutionActivityLogs(ctx context.Context, bearer, institutionID string, params url.Values) *backend.Response {
	s.lastParams = params
	return s.answer("InstitutionActivityLogs:"+institutionID, bearer)
}
func (s *stubProxy) GetSubscription(ctx context.Context, bearer string) *backend.Response {
	return s.answer("GetSubscription", bearer)
}
func (s *stubProxy) CancelSubscription(ctx context.Context, bearer string) *backend.Response {
	return s.answer("CancelSubscription", bearer)
}
func (s *stubProxy) ReactivateSubscription(ctx context.Context, bearer string) *backend.Response {
	return s.answer("ReactivateSubscription", bearer)
}
func (s *stubProxy) PaymentHistory(ctx context.Context, bearer string, params url.Values) *backend.Response {
	s.lastParams = params
	return s.answer("PaymentHistory", bearer)
}

func newProxyRouter(t *testing.T, role string) (*stubProxy, http.Handler) {
	t.Helper()
	proxy := &stubProxy{resp: &backend.Response{Success: true, Data: json.RawMessage(`{"ok":true}`)}}
	handler := NewProxyHandler(proxy, slog.New(slog.DiscardHandler))
	authorizer := &fixedAuthorizer{info: &middleware.SessionInfo{
		SessionID: "sess_1",
		UserID:    "usr_1",
		Role:      role,
		Token:     "upstream-token",
	}}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(authorizer, slog.New(slog.DiscardHandler)))
		handler.Register(r)
	})
	return proxy, r
}

func authedRequest(method, path string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer sess_1")
	return req
}

func TestProxyForwardsStoredToken(t *testing.T) {
	proxy, router := newProxyRouter(t, token.RoleAdmin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/users?page=2", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ListUsers", proxy.lastCall)
	assert.Equal(t, "upstream-token", proxy.lastBearer,
		"proxied calls must carry the backend token, not the session id")
	assert.Equal(t, "2", proxy.lastParams.Get("page"))
}

func TestProxyUserRoutesRequireAdminRole(t *testing.T) {
	_, router := newProxyRouter(t, token.RoleUser)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/users", ""))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProxyInstitutionApprovalRequiresAdmin(t *testing.T) {
	_, router := newProxyRouter(t, token.RoleInstitutionAdmin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/institutions/inst_1/approve", ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Non-gated institution reads remain available to institution admins.
	proxy, router := newProxyRouter(t, token.RoleInstitutionAdmin)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/institutions/inst_1/credentials", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "InstitutionCredentials:inst_1", proxy.lastCall)
}

func TestProxyRejectInstitutionCarriesReason(t *testing.T) {
	proxy, router := newProxyRouter(t, token.RoleSuperAdmin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/institutions/inst_1/reject",
		`{"reason":"incomplete accreditation"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RejectInstitution:inst_1:incomplete accreditation", proxy.lastCall)
}

func TestProxyBulkUploadRequiresRecords(t *testing.T) {
	_, router := newProxyRouter(t, token.RoleInstitutionAdmin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/institutions/inst_1/credentials/bulk",
		`{"records":[]}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProxyFailureEnvelopePassesThrough(t *testing.T) {
	proxy, router := newProxyRouter(t, token.RoleUser)
	proxy.resp = &backend.Response{Success: false, Error: "Resource not found"}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/subscriptions", ""))

	require.Equal(t, http.StatusOK, rec.Code, "pass-through status lives in the envelope")

	var envelope backend.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "Resource not found", envelope.Error)
}
