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

// LeaveRequestStore keeps leave requests in memory.
type LeaveRequestStore struct {
	mu    sync.RWMutex
	items map[string]models.LeaveRequest
}

// NewLeaveRequestStore creates an empty store.
func NewLeaveRequestStore() *LeaveRequestStore {
	return &LeaveRequestStore{items: map[string]models.LeaveRequest{}}
}

// Add stores a new request.
func (s *LeaveRequestStore) Add(_ context.Context, request *models.LeaveRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.SubmittedAt.IsZero() {
		request.SubmittedAt = now
	}
	request.UpdatedAt = now
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[request.ID] = request.Clone()
	return nil
}

// Update overwrites descriptive fields and the letter path, leaving status untouched.
func (s *LeaveRequestStore) Update(_ context.Context, request *models.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[request.ID]
	if !ok {
		return sql.ErrNoRows
	}
	current.Reason = request.Reason
	current.Details = request.Details
	current.StartDate = request.StartDate
	current.EndDate = request.EndDate
	current.Periods = request.Periods
	current.LetterPath = request.LetterPath
	current.UpdatedAt = time.Now().UTC()
	request.UpdatedAt = current.UpdatedAt
	s.items[request.ID] = current.Clone()
	return nil
}

// Delete removes a request.
func (s *LeaveRequestStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

// GetAll returns deep copies newest first.
func (s *LeaveRequestStore) GetAll(_ context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, int, error) {
	s.mu.RLock()
	matched := make([]models.LeaveRequest, 0, len(s.items))
	for _, item := range s.items {
		if filter.StudentUserID != "" && item.StudentUserID != filter.StudentUserID {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && item.Type != *filter.Type {
			continue
		}
		matched = append(matched, item.Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].SubmittedAt.Equal(matched[j].SubmittedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].SubmittedAt.After(matched[j].SubmittedAt)
	})
	return page(matched, filter.Page, filter.PageSize), len(matched), nil
}

// GetByID returns a copy of a request.
func (s *LeaveRequestStore) GetByID(_ context.Context, id string) (*models.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := item.Clone()
	return &out, nil
}

// UpdateStatus applies change only while the request still holds change.From.
func (s *LeaveRequestStore) UpdateStatus(_ context.Context, change models.StatusChange) (*models.LeaveRequest, error) {
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[change.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if item.Status != change.From {
		return nil, repository.ErrStatusConflict
	}
	actor := change.ActorID
	at := change.At
	item.Status = change.To
	if change.To == models.LeaveStatusAcknowledged {
		item.AcknowledgedBy = &actor
		item.AcknowledgedAt = &at
	} else {
		item.DecidedBy = &actor
		item.DecidedAt = &at
	}
	item.UpdatedAt = at
	s.items[change.ID] = item
	out := item.Clone()
	return &out, nil
}

// CountByStatus aggregates requests per status.
func (s *LeaveRequestStore) CountByStatus(_ context.Context, studentUserID string) (map[models.LeaveStatus]int, error) {
	counts := make(map[models.LeaveStatus]int, len(models.LeaveStatuses))
	for _, status := range models.LeaveStatuses {
		counts[status] = 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if studentUserID != "" && item.StudentUserID != studentUserID {
			continue
		}
		counts[item.Status]++
	}
	return counts, nil
}
