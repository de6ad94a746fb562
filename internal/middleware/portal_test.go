package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
)

type fakeAuthenticator struct {
	claims map[string]*models.JWTClaims
	err    error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.JWTClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	claims, ok := f.claims[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or signed out")
	}
	return claims, nil
}

func newFakeAuthenticator() *fakeAuthenticator {
	return &fakeAuthenticator{claims: map[string]*models.JWTClaims{
		"student-token": {UserID: "u-student", Role: models.RoleStudent},
		"staff-token":   {UserID: "u-staff", Role: models.RoleStaff},
		"admin-token":   {UserID: "u-admin", Role: models.RoleAdmin},
	}}
}

func TestResolvePortalAccess(t *testing.T) {
	cases := []struct {
		name     string
		session  PortalSession
		required models.UserRole
		want     PortalDecision
	}{
		{"loading", PortalSession{State: models.SessionAuthenticating}, models.RoleStaff, PortalDecision{Outcome: PortalPending}},
		{"profile not loaded", PortalSession{State: models.SessionAuthenticated}, models.RoleStaff, PortalDecision{Outcome: PortalPending}},
		{"anonymous", PortalSession{State: models.SessionAnonymous}, models.RoleAdmin, PortalDecision{Outcome: PortalRedirect, Location: "/auth/admin/login"}},
		{"zero value", PortalSession{}, models.RoleStudent, PortalDecision{Outcome: PortalRedirect, Location: "/auth/student/login"}},
		{"wrong portal", PortalSession{State: models.SessionAuthenticated, Role: models.RoleStudent}, models.RoleAdmin, PortalDecision{Outcome: PortalRedirect, Location: "/student/dashboard"}},
		{"matching role", PortalSession{State: models.SessionAuthenticated, Role: models.RoleAdmin}, models.RoleAdmin, PortalDecision{Outcome: PortalAllow}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolvePortalAccess(tc.session, tc.required))
		})
	}
}

func TestResolvePortalAccessNeverRedirectsToRequestedPortal(t *testing.T) {
	for _, required := range models.Roles {
		for _, role := range models.Roles {
			decision := ResolvePortalAccess(PortalSession{State: models.SessionAuthenticated, Role: role}, required)
			if role == required {
				assert.Equal(t, PortalAllow, decision.Outcome)
				continue
			}
			assert.Equal(t, DashboardPath(role), decision.Location)
		}
	}
}

func portalRouter(auth TokenAuthenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/staff/dashboard", PortalGuard(auth, models.RoleStaff), func(c *gin.Context) {
		c.String(http.StatusOK, "staff home")
	})
	return r
}

func TestPortalGuard(t *testing.T) {
	r := portalRouter(newFakeAuthenticator())

	cases := []struct {
		name     string
		prepare  func(req *http.Request)
		status   int
		location string
		body     string
	}{
		{"no session", func(*http.Request) {}, http.StatusFound, "/auth/staff/login", ""},
		{"signed out token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer stale") }, http.StatusFound, "/auth/staff/login", ""},
		{"student cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "student-token"})
		}, http.StatusFound, "/student/dashboard", ""},
		{"staff bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer staff-token") }, http.StatusOK, "", "staff home"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff/dashboard", nil)
			tc.prepare(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get("Location"))
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestPortalGuardPendingWhenSessionStoreFails(t *testing.T) {
	r := portalRouter(&fakeAuthenticator{err: appErrors.Wrap(errors.New("redis: connection refused"), appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to load session")})

	req := httptest.NewRequest(http.MethodGet, "/staff/dashboard", nil)
	req.Header.Set("Authorization", "Bearer staff-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"state":"pending"}`, rec.Body.String())
}
