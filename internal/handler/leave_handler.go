package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/dto"
	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/service"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/response"
)

type leaveService interface {
	Submit(ctx context.Context, actor service.Actor, req dto.SubmitLeaveRequest) (*models.LeaveRequest, []error, error)
	List(ctx context.Context, actor service.Actor, query dto.LeaveQuery) ([]dto.LeaveRequestView, *models.Pagination, error)
	Get(ctx context.Context, actor service.Actor, id string) (*dto.LeaveRequestView, error)
	Transition(ctx context.Context, actor service.Actor, id string, action models.LeaveAction) (*models.LeaveRequest, []error, error)
	DownloadLetter(ctx context.Context, actor service.Actor, id string) (*dto.ExportFile, error)
	Export(ctx context.Context, actor service.Actor, format string, query dto.LeaveQuery) (*dto.ExportFile, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
}

// LeaveHandler exposes the leave and on-duty workflow.
type LeaveHandler struct {
	service leaveService
}

// NewLeaveHandler constructs the handler.
func NewLeaveHandler(svc leaveService) *LeaveHandler {
	return &LeaveHandler{service: svc}
}

// Submit godoc
// @Summary Submit leave or on-duty request
// @Description Students only. Both types carry a date range. On-duty requests also carry a 1-5 period count.
// @Tags Leave
// @Accept json
// @Produce json
// @Param payload body dto.SubmitLeaveRequest true "Request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /leave-requests [post]
func (h *LeaveHandler) Submit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid request payload"))
		return
	}
	request, warnings, err := h.service.Submit(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request, response.WithWarnings(warnings))
}

// List godoc
// @Summary List requests
// @Description Students see their own requests, staff and admin see all of them.
// @Tags Leave
// @Produce json
// @Param status query string false "pending, acknowledged, approved or rejected"
// @Param type query string false "leave or od"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leave-requests [get]
func (h *LeaveHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query dto.LeaveQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get request
// @Tags Leave
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /leave-requests/{id} [get]
func (h *LeaveHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Transition godoc
// @Summary Apply workflow action
// @Description Staff acknowledge on-duty requests and decide leave requests. Admin decide acknowledged on-duty requests.
// @Tags Leave
// @Produce json
// @Param id path string true "Request ID"
// @Param action path string true "acknowledge, approve or reject"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leave-requests/{id}/{action} [post]
func (h *LeaveHandler) Transition(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	action := models.LeaveAction(c.Param("action"))
	switch action {
	case models.LeaveActionAcknowledge, models.LeaveActionApprove, models.LeaveActionReject:
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown action"))
		return
	}
	request, warnings, err := h.service.Transition(c.Request.Context(), actor, c.Param("id"), action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil, response.WithWarnings(warnings))
}

// Letter godoc
// @Summary Download decision letter
// @Tags Leave
// @Produce application/pdf
// @Param id path string true "Request ID"
// @Success 200 {file} file
// @Failure 409 {object} response.Envelope
// @Router /leave-requests/{id}/letter [get]
func (h *LeaveHandler) Letter(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	file, err := h.service.DownloadLetter(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// Export godoc
// @Summary Export requests
// @Tags Leave
// @Produce application/octet-stream
// @Param format query string false "csv, xlsx or pdf" default(csv)
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Success 200 {file} file
// @Router /leave-requests/export [get]
func (h *LeaveHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query dto.LeaveQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), actor, c.DefaultQuery("format", "csv"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file)
}

// Delete godoc
// @Summary Delete request
// @Tags Leave
// @Param id path string true "Request ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /leave-requests/{id} [delete]
func (h *LeaveHandler) Delete(c *gin.Context) {
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

func sendFile(c *gin.Context, file *dto.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
