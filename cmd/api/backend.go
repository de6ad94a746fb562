package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/repository"
	"github.com/noah-isme/unisync-api/internal/repository/memory"
	"github.com/noah-isme/unisync-api/internal/service"
	"github.com/noah-isme/unisync-api/pkg/cache"
	"github.com/noah-isme/unisync-api/pkg/config"
	"github.com/noah-isme/unisync-api/pkg/database"
	"github.com/noah-isme/unisync-api/pkg/mail"
)

// backend holds the persistence seam chosen once from BACKEND_MODE.
type backend struct {
	users         repository.UserStore
	sessions      repository.SessionStore
	announcements repository.AnnouncementStore
	bookmarks     repository.BookmarkStore
	requests      repository.LeaveRequestStore
	audit         repository.AuditStore
	events        repository.EventBus
	cache         service.CacheRepository

	closers []func() error
}

func (b *backend) Close(logger *zap.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Warn("failed to close backend resource", zap.Error(err))
		}
	}
}

func newBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	if cfg.Mock() {
		return newMockBackend(ctx, cfg)
	}
	return newPostgresBackend(ctx, cfg, logger)
}

func newMockBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	users := memory.NewUserStore()
	announcements := memory.NewAnnouncementStore()
	if err := memory.Seed(ctx, users, announcements, memory.DefaultAccounts); err != nil {
		return nil, fmt.Errorf("seed fixtures: %w", err)
	}
	bus := memory.NewEventBus(cfg.Events.Buffer)
	return &backend{
		users:         users,
		sessions:      memory.NewSessionStore(),
		announcements: announcements,
		bookmarks:     memory.NewBookmarkStore(),
		requests:      memory.NewLeaveRequestStore(),
		audit:         memory.NewAuditStore(),
		events:        bus,
		cache:         memory.NewCacheStore(),
		closers:       []func() error{bus.Close},
	}, nil
}

func newPostgresBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	b := &backend{closers: []func() error{db.Close}}

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(db.DB, logger); err != nil {
			b.Close(logger)
			return nil, err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		b.Close(logger)
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	b.closers = append(b.closers, redisClient.Close)

	b.users = repository.NewUserRepository(db)
	b.sessions = repository.NewRedisSessionStore(redisClient)
	b.announcements = repository.NewAnnouncementRepository(db)
	b.bookmarks = repository.NewBookmarkRepository(db)
	b.requests = repository.NewLeaveRequestRepository(db)
	b.audit = repository.NewAuditRepository(db)
	b.cache = repository.NewCacheRepository(redisClient, logger)

	switch cfg.Events.Transport {
	case config.EventsRedis:
		bus := repository.NewRedisEventBus(redisClient, cfg.Events.Channel, cfg.Events.Buffer, logger)
		b.events = bus
		b.closers = append(b.closers, bus.Close)
	default:
		bus := memory.NewEventBus(cfg.Events.Buffer)
		b.events = bus
		b.closers = append(b.closers, bus.Close)
	}
	return b, nil
}

// newNotifier picks the email transport. Connection failures fall back to the log notifier.
func newNotifier(cfg *config.Config, logger *zap.Logger) (service.Notifier, func() error) {
	switch cfg.Notifications.Transport {
	case config.NotifySMTP:
		sender, err := mail.NewSMTPSender(cfg.SMTP)
		if err != nil {
			logger.Warn("smtp notifier unavailable, logging notifications instead", zap.Error(err))
			break
		}
		return service.NewSMTPNotifier(sender), sender.Close
	case config.NotifyAMQP:
		publisher, err := mail.NewAMQPPublisher(cfg.AMQP)
		if err != nil {
			logger.Warn("amqp notifier unavailable, logging notifications instead", zap.Error(err))
			break
		}
		return service.NewAMQPNotifier(publisher), publisher.Close
	}
	return service.NewLogNotifier(logger), func() error { return nil }
}
