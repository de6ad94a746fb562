package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/unisync-api/internal/models"
)

// BookmarkStore keeps saved announcements per user.
type BookmarkStore struct {
	mu    sync.RWMutex
	items map[string]map[string]time.Time
}

// NewBookmarkStore creates an empty store.
func NewBookmarkStore() *BookmarkStore {
	return &BookmarkStore{items: map[string]map[string]time.Time{}}
}

// Save records a bookmark, keeping the first timestamp on repeats.
func (s *BookmarkStore) Save(_ context.Context, bookmark *models.SavedAnnouncement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, ok := s.items[bookmark.UserID]
	if !ok {
		saved = map[string]time.Time{}
		s.items[bookmark.UserID] = saved
	}
	if at, exists := saved[bookmark.AnnouncementID]; exists {
		bookmark.SavedAt = at
		return nil
	}
	if bookmark.SavedAt.IsZero() {
		bookmark.SavedAt = time.Now().UTC()
	}
	saved[bookmark.AnnouncementID] = bookmark.SavedAt
	return nil
}

// Remove deletes a bookmark if present.
func (s *BookmarkStore) Remove(_ context.Context, userID, announcementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items[userID], announcementID)
	return nil
}

// ListByUser returns bookmarks newest first.
func (s *BookmarkStore) ListByUser(_ context.Context, userID string) ([]models.SavedAnnouncement, error) {
	s.mu.RLock()
	out := make([]models.SavedAnnouncement, 0, len(s.items[userID]))
	for id, at := range s.items[userID] {
		out = append(out, models.SavedAnnouncement{UserID: userID, AnnouncementID: id, SavedAt: at})
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].AnnouncementID < out[j].AnnouncementID
		}
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}
