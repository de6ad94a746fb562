package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/jobs"
)

const notificationJobType = "leave_notification"

// NotificationConfig controls addressing and delivery of notifications.
type NotificationConfig struct {
	StaffEmail string
	AdminEmail string
	Queue      jobs.QueueConfig
}

// NotificationService delivers leave notifications asynchronously through a worker pool.
type NotificationService struct {
	notifier Notifier
	queue    *jobs.Queue
	metrics  *MetricsService
	logger   *zap.Logger
	config   NotificationConfig
}

// NewNotificationService constructs the service; call Start before Notify.
func NewNotificationService(notifier Notifier, metrics *MetricsService, logger *zap.Logger, config NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{notifier: notifier, metrics: metrics, logger: logger, config: config}
	queueCfg := config.Queue
	if queueCfg.Logger == nil {
		queueCfg.Logger = logger
	}
	queueCfg.OnGiveUp = func(job jobs.Job, err error) {
		s.logger.Error("notification delivery abandoned", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, queueCfg)
	metrics.ObserveQueue("notifications", s.queue.Stats)
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify addresses the notification and queues it for delivery.
func (s *NotificationService) Notify(notification models.LeaveNotification) error {
	if s == nil {
		return nil
	}
	notification.StaffEmail = s.config.StaffEmail
	notification.AdminEmail = s.config.AdminEmail
	if err := s.queue.TryEnqueue(jobs.Job{ID: uuid.NewString(), Type: notificationJobType, Payload: notification}); err != nil {
		s.logger.Warn("failed to queue notification", zap.String("request_id", notification.RequestID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "notification could not be queued")
	}
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.LeaveNotification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	result := s.notifier.Send(ctx, notification)
	s.metrics.RecordNotification(result.Success)
	if !result.Success {
		return errors.New(result.Error)
	}
	s.logger.Debug("notification delivered", zap.String("request_id", notification.RequestID), zap.String("message", result.Message))
	return nil
}
