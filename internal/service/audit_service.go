package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
)

type auditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error)
}

// AuditEntry describes an action to record.
type AuditEntry struct {
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	Before     interface{}
	After      interface{}
	IP         string
	UserAgent  string
}

// AuditService records the audit trail. Recording failures are logged, never returned.
type AuditService struct {
	store  auditStore
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(store auditStore, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{store: store, logger: logger}
}

// Record persists entry.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if s == nil || s.store == nil {
		return
	}
	log := &models.AuditLog{
		Action:    entry.Action,
		Resource:  entry.Resource,
		OldValues: marshalAudit(entry.Before),
		NewValues: marshalAudit(entry.After),
		IPAddress: entry.IP,
		UserAgent: entry.UserAgent,
	}
	if entry.ActorID != "" {
		actor := entry.ActorID
		log.UserID = &actor
	}
	if entry.ResourceID != "" {
		resourceID := entry.ResourceID
		log.ResourceID = &resourceID
	}
	if err := s.store.Create(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}

// List returns audit entries for administrators.
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, *models.Pagination, error) {
	entries, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return entries, pagination(filter.Page, filter.PageSize, total), nil
}

func marshalAudit(v interface{}) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func pagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
