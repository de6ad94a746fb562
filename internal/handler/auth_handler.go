package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/middleware"
	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/response"
)

type authService interface {
	SignIn(ctx context.Context, req models.SignInRequest) (*models.SessionResponse, error)
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.SessionResponse, error)
	SignOut(ctx context.Context, sessionID string) *models.SessionResponse
	Restore(ctx context.Context, sessionID string) *models.SessionResponse
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service      authService
	secureCookie bool
}

// NewAuthHandler creates a new handler. secureCookie marks the session cookie as HTTPS only.
func NewAuthHandler(svc authService, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: svc, secureCookie: secureCookie}
}

// SignIn godoc
// @Summary Sign in to a portal
// @Description Authenticate by email and password. The role path segment is the portal being signed into; role_id optionally confirms the student, staff or admin id.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param role path string false "Portal role (student, staff, admin)"
// @Param payload body models.SignInRequest true "Sign-in payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/{role}/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid sign-in payload"))
		return
	}
	if raw := c.Param("role"); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown portal"))
			return
		}
		req.Role = role
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSessionCookie(c, res)
	response.JSON(c, http.StatusOK, res, nil)
}

// SignUp godoc
// @Summary Register an account
// @Description Create a student, staff or admin account and sign it in. If no session can be opened the account is kept and the state is anonymous.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignUpRequest true "Sign-up payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/sign-up [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid sign-up payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSessionCookie(c, res)
	response.Created(c, res)
}

// SignOut godoc
// @Summary Sign out
// @Description End the current session. Always succeeds, also for sessions that are already gone.
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/sign-out [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	sessionID := ""
	if claims, ok := middleware.ClaimsFromContext(c); ok {
		sessionID = claims.SessionID
	}
	res := h.service.SignOut(c.Request.Context(), sessionID)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	response.JSON(c, http.StatusOK, res, nil)
}

// Session godoc
// @Summary Restore session
// @Description Return the current session state, role and profile without re-authenticating
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	sessionID := ""
	if claims, ok := middleware.ClaimsFromContext(c); ok {
		sessionID = claims.SessionID
	}
	response.JSON(c, http.StatusOK, h.service.Restore(c.Request.Context(), sessionID), nil)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, res *models.SessionResponse) {
	if res == nil || res.AccessToken == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, res.AccessToken, int(res.ExpiresIn), "/", "", h.secureCookie, true)
}
