package memory

import (
	"context"
	"sync"

	"github.com/noah-isme/unisync-api/internal/models"
)

// EventBus fans events out to in-process subscribers.
type EventBus struct {
	mu     sync.RWMutex
	buffer int
	nextID int
	subs   map[int]chan models.Event
	closed bool
}

// NewEventBus creates a bus whose subscribers buffer up to buffer events.
func NewEventBus(buffer int) *EventBus {
	if buffer <= 0 {
		buffer = 16
	}
	return &EventBus{buffer: buffer, subs: map[int]chan models.Event{}}
}

// Publish delivers event to every subscriber with room; full subscribers miss it.
func (b *EventBus) Publish(_ context.Context, event models.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx ends or cancel runs.
func (b *EventBus) Subscribe(ctx context.Context) (<-chan models.Event, func()) {
	ch := make(chan models.Event, b.buffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
			b.mu.Unlock()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return ch, cancel
}

// Close ends every subscription.
func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
