package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/unisync-api/internal/middleware"
	"github.com/noah-isme/unisync-api/internal/models"
)

type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool {
	return r.closed
}

type staticSubscriber struct {
	events       []models.Event
	unsubscribed bool
}

func (s *staticSubscriber) Subscribe(context.Context) (<-chan models.Event, func()) {
	ch := make(chan models.Event, len(s.events))
	for _, event := range s.events {
		ch <- event
	}
	close(ch)
	return ch, func() { s.unsubscribed = true }
}

func streamEvents(handler *EventsHandler, claims *models.JWTClaims) *closeNotifyRecorder {
	rec := &closeNotifyRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/events", nil)
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	handler.Stream(c)
	return rec
}

func TestEventsHandlerStreamsUntilFeedCloses(t *testing.T) {
	sub := &staticSubscriber{events: []models.Event{{
		ID:       "evt-1",
		Type:     models.EventStatusChanged,
		Entity:   models.EntityLeaveRequest,
		EntityID: "req-1",
		At:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}}}
	handler := NewEventsHandler(sub, time.Hour)

	rec := streamEvents(handler, staffClaims())

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event:ready")
	assert.Contains(t, body, "event:leave_request.status_changed")
	assert.Contains(t, body, `"entity_id":"req-1"`)
	assert.True(t, sub.unsubscribed)
}

func TestEventsHandlerScopesLeaveEventsForStudents(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events := []models.Event{
		{ID: "evt-own", Type: models.EventStatusChanged, Entity: models.EntityLeaveRequest, EntityID: "req-own", At: at,
			Data: map[string]string{models.EventDataOwner: "user-student"}},
		{ID: "evt-other", Type: models.EventStatusChanged, Entity: models.EntityLeaveRequest, EntityID: "req-other", At: at,
			Data: map[string]string{models.EventDataOwner: "user-someone-else"}},
		{ID: "evt-news", Type: models.EventCreated, Entity: models.EntityAnnouncement, EntityID: "ann-1", At: at},
	}

	student := streamEvents(NewEventsHandler(&staticSubscriber{events: events}, time.Hour), studentClaims()).Body.String()
	assert.Contains(t, student, `"entity_id":"req-own"`)
	assert.NotContains(t, student, "req-other")
	assert.Contains(t, student, `"entity_id":"ann-1"`)

	staff := streamEvents(NewEventsHandler(&staticSubscriber{events: events}, time.Hour), staffClaims()).Body.String()
	assert.Contains(t, staff, `"entity_id":"req-own"`)
	assert.Contains(t, staff, `"entity_id":"req-other"`)
}

func TestEventsHandlerRequiresClaims(t *testing.T) {
	sub := &staticSubscriber{}
	rec := streamEvents(NewEventsHandler(sub, time.Hour), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, sub.unsubscribed)
}
