package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/service"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, error)
	UploadAvatar(ctx context.Context, userID string, upload service.Upload) (*models.Profile, error)
}

// ProfileHandler serves the signed-in user's profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Get godoc
// @Summary Current profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Update godoc
// @Summary Update profile
// @Description Change full name and phone. Role and role id cannot be changed.
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid profile payload"))
		return
	}
	profile, err := h.service.Update(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UploadAvatar godoc
// @Summary Upload avatar
// @Tags Profile
// @Accept mpfd
// @Produce json
// @Param avatar formData file true "Image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	upload, closeUpload, err := optionalUpload(c, "avatar")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeUpload()
	if upload == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "avatar file is required"))
		return
	}
	profile, err := h.service.UploadAvatar(c.Request.Context(), actor.ID, *upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
