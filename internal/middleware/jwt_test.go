package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/unisync-api/internal/models"
)

func protectedRouter(auth TokenAuthenticator, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(auth), RequireRoles(roles...), func(c *gin.Context) {
		claims, _ := ClaimsFromContext(c)
		c.String(http.StatusOK, claims.UserID)
	})
	return r
}

func TestJWTAndRequireRoles(t *testing.T) {
	r := protectedRouter(newFakeAuthenticator(), models.RoleStaff, models.RoleAdmin)

	cases := []struct {
		name   string
		header string
		cookie string
		status int
		body   string
	}{
		{"missing token", "", "", http.StatusUnauthorized, ""},
		{"malformed header", "Token abc", "", http.StatusUnauthorized, ""},
		{"unknown session", "Bearer stale", "", http.StatusUnauthorized, ""},
		{"role not allowed", "Bearer student-token", "", http.StatusForbidden, ""},
		{"allowed via bearer", "Bearer admin-token", "", http.StatusOK, "u-admin"},
		{"allowed via cookie", "", "staff-token", http.StatusOK, "u-staff"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}
