package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// SessionCookie carries the access token for portal routes.
	SessionCookie = "unisync_session"
)

// TokenAuthenticator validates an access token against the live session store.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token whose session is still open.
func JWT(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := TokenFromRequest(c)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when a valid token is present but does not block.
func OptionalJWT(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := TokenFromRequest(c); err == nil {
			if claims, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(ContextUserKey, claims)
			}
		}
		c.Next()
	}
}

// TokenFromRequest reads the bearer token, falling back to the session cookie.
func TokenFromRequest(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", appErrors.ErrUnauthorized
}

// ClaimsFromContext returns the claims stored by JWT.
func ClaimsFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}
