package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisync-api/internal/middleware"
	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
)

type authServiceMock struct {
	signInResp  *models.SessionResponse
	signInErr   error
	lastSignIn  models.SignInRequest
	signedOut   []string
	restoreResp *models.SessionResponse
}

func (m *authServiceMock) SignIn(_ context.Context, req models.SignInRequest) (*models.SessionResponse, error) {
	m.lastSignIn = req
	return m.signInResp, m.signInErr
}

func (m *authServiceMock) SignUp(context.Context, models.SignUpRequest) (*models.SessionResponse, error) {
	return nil, appErrors.ErrDuplicateEmail
}

func (m *authServiceMock) SignOut(_ context.Context, sessionID string) *models.SessionResponse {
	m.signedOut = append(m.signedOut, sessionID)
	return &models.SessionResponse{State: models.SessionAnonymous}
}

func (m *authServiceMock) Restore(context.Context, string) *models.SessionResponse {
	return m.restoreResp
}

func TestAuthHandlerSignInUsesPortalRoleAndSetsCookie(t *testing.T) {
	mockSvc := &authServiceMock{signInResp: &models.SessionResponse{State: models.SessionAuthenticated, AccessToken: "token-1", ExpiresIn: 3600}}
	handler := NewAuthHandler(mockSvc, true)

	rec := httptest.NewRecorder()
	c := newTestContext(rec, nil)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/staff/sign-in", bytes.NewReader([]byte(`{"email":"staff@unisync.edu","password":"Staff1234","role_id":"STF001"}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = append(c.Params, ginParam("role", "staff"))

	handler.SignIn(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleStaff, mockSvc.lastSignIn.Role)
	assert.Equal(t, "STF001", mockSvc.lastSignIn.RoleID)
	cookie := rec.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, middleware.SessionCookie+"=token-1")
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "Secure")
}

func TestAuthHandlerSignInErrorsKeepCode(t *testing.T) {
	mockSvc := &authServiceMock{signInErr: appErrors.ErrRoleMismatch}
	handler := NewAuthHandler(mockSvc, false)

	rec := httptest.NewRecorder()
	c := newTestContext(rec, nil)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/admin/sign-in", bytes.NewReader([]byte(`{"email":"student@unisync.edu","password":"Student123"}`)))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = append(c.Params, ginParam("role", "admin"))

	handler.SignIn(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ROLE_MISMATCH", decodeEnvelope(t, rec).Error.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestAuthHandlerSignUpDuplicate(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{}, false)

	rec := httptest.NewRecorder()
	c := newTestContext(rec, nil)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/sign-up", bytes.NewReader([]byte(`{"email":"student@unisync.edu"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.SignUp(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandlerSignOutWithoutSession(t *testing.T) {
	mockSvc := &authServiceMock{}
	handler := NewAuthHandler(mockSvc, false)

	rec := httptest.NewRecorder()
	c := newTestContext(rec, nil)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/sign-out", nil)

	handler.SignOut(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{""}, mockSvc.signedOut)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestAuthHandlerSessionRestore(t *testing.T) {
	mockSvc := &authServiceMock{restoreResp: &models.SessionResponse{State: models.SessionAuthenticated}}
	handler := NewAuthHandler(mockSvc, false)

	rec := httptest.NewRecorder()
	c := newTestContext(rec, studentClaims())
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/session", nil)

	handler.Session(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"authenticated"`)
}
