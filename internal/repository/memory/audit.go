package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/unisync-api/internal/models"
)

// AuditStore keeps audit entries in memory.
type AuditStore struct {
	mu      sync.RWMutex
	entries []models.AuditLog
}

// NewAuditStore creates an empty store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Create appends an entry.
func (s *AuditStore) Create(_ context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

// List returns entries newest first.
func (s *AuditStore) List(_ context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error) {
	s.mu.RLock()
	matched := make([]models.AuditLog, 0, len(s.entries))
	for _, entry := range s.entries {
		if filter.UserID != "" && (entry.UserID == nil || *entry.UserID != filter.UserID) {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.Resource != "" && entry.Resource != filter.Resource {
			continue
		}
		matched = append(matched, entry)
	}
	s.mu.RUnlock()
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, filter.Page, filter.PageSize), len(matched), nil
}
