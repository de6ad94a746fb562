package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/repository"
)

// AnnouncementStore keeps announcements in memory.
type AnnouncementStore struct {
	mu    sync.RWMutex
	items map[string]models.Announcement
}

// NewAnnouncementStore creates an empty store.
func NewAnnouncementStore() *AnnouncementStore {
	return &AnnouncementStore{items: map[string]models.Announcement{}}
}

// Add stores a new announcement.
func (s *AnnouncementStore) Add(_ context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = now
	}
	announcement.UpdatedAt = now
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[announcement.ID] = announcement.Clone()
	return nil
}

// Update replaces the mutable fields of an existing announcement.
func (s *AnnouncementStore) Update(_ context.Context, announcement *models.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[announcement.ID]
	if !ok {
		return sql.ErrNoRows
	}
	announcement.UpdatedAt = time.Now().UTC()
	announcement.CreatedAt = current.CreatedAt
	announcement.CreatorID = current.CreatorID
	announcement.CreatedBy = current.CreatedBy
	s.items[announcement.ID] = announcement.Clone()
	return nil
}

// Delete removes an announcement.
func (s *AnnouncementStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

// GetAll returns deep copies newest first.
func (s *AnnouncementStore) GetAll(_ context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	s.mu.RLock()
	matched := make([]models.Announcement, 0, len(s.items))
	for _, item := range s.items {
		if filter.Category != nil && item.Category != *filter.Category {
			continue
		}
		if filter.CreatorID != "" && item.CreatorID != filter.CreatorID {
			continue
		}
		matched = append(matched, item.Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, filter.Page, filter.PageSize), len(matched), nil
}

// GetByID returns a copy of an announcement.
func (s *AnnouncementStore) GetByID(_ context.Context, id string) (*models.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := item.Clone()
	return &out, nil
}

// CountByCategory aggregates announcements per category.
func (s *AnnouncementStore) CountByCategory(_ context.Context) (map[models.AnnouncementCategory]int, error) {
	counts := make(map[models.AnnouncementCategory]int, len(models.AnnouncementCategories))
	for _, category := range models.AnnouncementCategories {
		counts[category] = 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		counts[item.Category]++
	}
	return counts, nil
}

func page[T any](items []T, pageNumber, pageSize int) []T {
	_, size, offset := repository.Paginate(pageNumber, pageSize)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
