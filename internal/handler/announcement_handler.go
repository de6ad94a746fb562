package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/dto"
	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/service"
	"github.com/noah-isme/unisync-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context, query dto.AnnouncementQuery) ([]models.Announcement, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, actor service.Actor, req dto.CreateAnnouncementRequest, attachment *service.Upload) (*models.Announcement, error)
	Update(ctx context.Context, actor service.Actor, id string, req dto.UpdateAnnouncementRequest, attachment *service.Upload) (*models.Announcement, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	Save(ctx context.Context, actor service.Actor, id string) (*models.SavedAnnouncement, error)
	Unsave(ctx context.Context, actor service.Actor, id string) error
	ListSaved(ctx context.Context, actor service.Actor) ([]dto.SavedAnnouncementView, error)
	Share(ctx context.Context, id string) (*models.ShareReference, error)
}

// AnnouncementHandler exposes announcement CRUD and student bookmarks.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(svc announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// List godoc
// @Summary List announcements
// @Tags Announcements
// @Produce json
// @Param category query string false "emergency, important, placement, event or general"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	var query dto.AnnouncementQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	announcement, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Create godoc
// @Summary Publish announcement
// @Description Staff and admin only. Accepts JSON or a multipart form with an optional file field.
// @Tags Announcements
// @Accept json,mpfd
// @Produce json
// @Param payload body dto.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateAnnouncementRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid announcement payload"))
		return
	}
	upload, closeUpload, err := optionalUpload(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeUpload()

	announcement, err := h.service.Create(c.Request.Context(), actor, req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Update godoc
// @Summary Update announcement
// @Description Creator or admin only. Omitted fields keep their value.
// @Tags Announcements
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body dto.UpdateAnnouncementRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateAnnouncementRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid announcement payload"))
		return
	}
	upload, closeUpload, err := optionalUpload(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeUpload()

	announcement, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Save godoc
// @Summary Bookmark announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id}/save [post]
func (h *AnnouncementHandler) Save(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	bookmark, err := h.service.Save(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookmark, nil)
}

// Unsave godoc
// @Summary Remove bookmark
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 204
// @Router /announcements/{id}/save [delete]
func (h *AnnouncementHandler) Unsave(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Unsave(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSaved godoc
// @Summary List bookmarks
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcements/saved [get]
func (h *AnnouncementHandler) ListSaved(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.ListSaved(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Share godoc
// @Summary Share reference
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id}/share [get]
func (h *AnnouncementHandler) Share(c *gin.Context) {
	ref, err := h.service.Share(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ref, nil)
}
