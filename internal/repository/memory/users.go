package memory

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/repository"
)

// UserStore keeps users and profiles in memory.
type UserStore struct {
	mu       sync.RWMutex
	users    map[string]models.User
	profiles map[string]models.Profile
}

// NewUserStore creates an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: map[string]models.User{}, profiles: map[string]models.Profile{}}
}

// FindByEmail returns a user by case-insensitive email.
func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			out := user
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

// FindByID returns a user by identifier.
func (s *UserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

// CreateWithProfile stores both records or neither.
func (s *UserStore) CreateWithProfile(_ context.Context, user *models.User, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	roleID := profile.RoleIdentifier()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	for _, existing := range s.profiles {
		if existing.Role == profile.Role && strings.EqualFold(existing.RoleIdentifier(), roleID) {
			return repository.ErrDuplicateRoleID
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	profile.UserID = user.ID
	profile.Email = user.Email
	profile.FullName = user.FullName
	profile.Role = user.Role
	profile.CreatedAt = user.CreatedAt
	profile.UpdatedAt = now

	s.users[user.ID] = *user
	s.profiles[user.ID] = cloneProfile(*profile)
	return nil
}

// GetProfile returns the profile of a user.
func (s *UserStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := cloneProfile(profile)
	return &out, nil
}

// UpdateProfile writes the mutable fields.
func (s *UserStore) UpdateProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.profiles[profile.UserID]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now().UTC()
	current.FullName = profile.FullName
	current.Phone = cloneString(profile.Phone)
	current.AvatarURL = cloneString(profile.AvatarURL)
	current.UpdatedAt = now
	s.profiles[profile.UserID] = current
	if user, ok := s.users[profile.UserID]; ok {
		user.FullName = profile.FullName
		user.UpdatedAt = now
		s.users[profile.UserID] = user
	}
	profile.UpdatedAt = now
	return nil
}

// UpdateLastLogin records the last sign-in time.
func (s *UserStore) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.LastLogin = &ts
	user.UpdatedAt = ts
	s.users[id] = user
	return nil
}

func cloneProfile(p models.Profile) models.Profile {
	out := p
	out.StudentID = cloneString(p.StudentID)
	out.StaffID = cloneString(p.StaffID)
	out.AdminID = cloneString(p.AdminID)
	out.Phone = cloneString(p.Phone)
	out.AvatarURL = cloneString(p.AvatarURL)
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
