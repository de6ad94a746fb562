package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
)

// PortalOutcome is what a portal route does for a session.
type PortalOutcome string

const (
	PortalPending  PortalOutcome = "pending"
	PortalRedirect PortalOutcome = "redirect"
	PortalAllow    PortalOutcome = "allow"
)

// PortalSession is the part of the session state the router depends on.
type PortalSession struct {
	State models.SessionState
	Role  models.UserRole
}

// PortalDecision is the result of ResolvePortalAccess. Location is set for redirects.
type PortalDecision struct {
	Outcome  PortalOutcome
	Location string
}

// LoginPath is the sign-in page of a portal.
func LoginPath(role models.UserRole) string {
	return "/auth/" + string(role) + "/login"
}

// DashboardPath is the landing page of a portal.
func DashboardPath(role models.UserRole) string {
	return "/" + string(role) + "/dashboard"
}

// ResolvePortalAccess decides what a route requiring role does for session.
func ResolvePortalAccess(session PortalSession, required models.UserRole) PortalDecision {
	switch session.State {
	case models.SessionAuthenticating:
		return PortalDecision{Outcome: PortalPending}
	case models.SessionAuthenticated:
		if session.Role == "" {
			return PortalDecision{Outcome: PortalPending}
		}
		if session.Role != required {
			return PortalDecision{Outcome: PortalRedirect, Location: DashboardPath(session.Role)}
		}
		return PortalDecision{Outcome: PortalAllow}
	}
	return PortalDecision{Outcome: PortalRedirect, Location: LoginPath(required)}
}

// PortalGuard applies ResolvePortalAccess to a portal route.
func PortalGuard(auth TokenAuthenticator, required models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := PortalSession{State: models.SessionAnonymous}
		if token, err := TokenFromRequest(c); err == nil {
			claims, err := auth.Authenticate(c.Request.Context(), token)
			switch {
			case err == nil:
				session = PortalSession{State: models.SessionAuthenticated, Role: claims.Role}
				c.Set(ContextUserKey, claims)
			case !appErrors.HasCode(err, appErrors.ErrUnauthorized.Code):
				session.State = models.SessionAuthenticating
			}
		}

		decision := ResolvePortalAccess(session, required)
		switch decision.Outcome {
		case PortalPending:
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"state": string(PortalPending)})
		case PortalRedirect:
			c.Redirect(http.StatusFound, decision.Location)
			c.Abort()
		default:
			c.Next()
		}
	}
}
