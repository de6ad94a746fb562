package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/pkg/response"
)

type auditLister interface {
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, *models.Pagination, error)
}

type auditQuery struct {
	UserID   string `form:"user_id"`
	Action   string `form:"action"`
	Resource string `form:"resource"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	service auditLister
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc auditLister) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary Audit trail
// @Tags Audit
// @Produce json
// @Param user_id query string false "Actor"
// @Param action query string false "Action"
// @Param resource query string false "Resource"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	var query auditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}
	entries, pagination, err := h.service.List(c.Request.Context(), models.AuditLogFilter{
		UserID:   query.UserID,
		Action:   query.Action,
		Resource: query.Resource,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
