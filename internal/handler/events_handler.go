package handler

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unisync-api/internal/models"
)

type eventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan models.Event, func())
}

// EventsHandler streams store mutations to connected clients as server-sent events.
// Events carry identifiers only so clients refetch through the authorized endpoints.
// Students receive leave request events for their own requests only.
type EventsHandler struct {
	events    eventSubscriber
	heartbeat time.Duration
}

// NewEventsHandler constructs the handler. A non-positive heartbeat defaults to 25s.
func NewEventsHandler(events eventSubscriber, heartbeat time.Duration) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &EventsHandler{events: events, heartbeat: heartbeat}
}

// Stream godoc
// @Summary Live updates
// @Description Server-sent events for announcement and request changes.
// @Tags Events
// @Produce text/event-stream
// @Success 200
// @Router /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	feed, unsubscribe := h.events.Subscribe(ctx)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.SSEvent("ready", gin.H{"at": time.Now().UTC()})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-feed:
			if !ok {
				return false
			}
			if !event.VisibleTo(actor.ID, actor.Role) {
				return true
			}
			c.SSEvent(event.Entity+"."+string(event.Type), event)
			return true
		case at := <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"at": at.UTC()})
			return true
		}
	})
}
