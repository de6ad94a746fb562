package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/dto"
	"github.com/noah-isme/unisync-api/internal/service"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, actor service.Actor) (*dto.DashboardResponse, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Role dashboard
// @Description Students get request counts and bookmarks. Staff and admin get the requests awaiting them.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, err := h.service.Summary(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"processing_time_ms": time.Since(start).Milliseconds()}
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
