package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/models"
)

// RedisEventBus publishes events on a Redis channel so every API replica sees them.
type RedisEventBus struct {
	client  *redis.Client
	channel string
	buffer  int
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	subs   map[*redis.PubSub]struct{}
}

// NewRedisEventBus constructs the bus.
func NewRedisEventBus(client *redis.Client, channel string, buffer int, logger *zap.Logger) *RedisEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 16
	}
	return &RedisEventBus{client: client, channel: channel, buffer: buffer, logger: logger, subs: map[*redis.PubSub]struct{}{}}
}

// Publish encodes and publishes the event.
func (b *RedisEventBus) Publish(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe returns a channel of events until ctx ends or the returned cancel func runs.
// Events that cannot be delivered to a full subscriber buffer are dropped.
func (b *RedisEventBus) Subscribe(ctx context.Context) (<-chan models.Event, func()) {
	out := make(chan models.Event, b.buffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(out)
		return out, func() {}
	}
	pubsub := b.client.Subscribe(ctx, b.channel)
	b.subs[pubsub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, pubsub)
			b.mu.Unlock()
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		defer cancel()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event models.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("discarding malformed event", zap.Error(err))
					continue
				}
				select {
				case out <- event:
				default:
					b.logger.Debug("subscriber buffer full, dropping event", zap.String("event_id", event.ID))
				}
			}
		}
	}()
	return out, cancel
}

// Close terminates every subscription.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for pubsub := range b.subs {
		_ = pubsub.Close()
		delete(b.subs, pubsub)
	}
	return nil
}
