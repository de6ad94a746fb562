package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/models"
)

type eventBus interface {
	Publish(ctx context.Context, event models.Event) error
	Subscribe(ctx context.Context) (<-chan models.Event, func())
}

// EventService publishes store mutations and hands subscriptions to the SSE stream.
type EventService struct {
	bus     eventBus
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewEventService constructs the service.
func NewEventService(bus eventBus, metrics *MetricsService, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{bus: bus, metrics: metrics, logger: logger, now: time.Now}
}

// Publish emits an event. Delivery failures are logged and returned for warning reporting.
func (s *EventService) Publish(ctx context.Context, kind models.EventType, entity, entityID, actorID string, data map[string]string) error {
	if s == nil || s.bus == nil {
		return nil
	}
	event := models.Event{
		ID:       uuid.NewString(),
		Type:     kind,
		Entity:   entity,
		EntityID: entityID,
		ActorID:  actorID,
		At:       s.now().UTC(),
		Data:     data,
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("entity", entity), zap.String("entity_id", entityID), zap.Error(err))
		return err
	}
	s.metrics.RecordEvent(event)
	return nil
}

// Subscribe returns a feed of events until ctx ends or cancel is called.
func (s *EventService) Subscribe(ctx context.Context) (<-chan models.Event, func()) {
	return s.bus.Subscribe(ctx)
}
