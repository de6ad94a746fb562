package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/unisync-api/internal/models"
)

var (
	// ErrStatusConflict is returned by UpdateStatus when the stored status no longer matches the expected one.
	ErrStatusConflict = errors.New("status changed concurrently")
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
	// ErrDuplicateEmail marks an email that is already registered.
	ErrDuplicateEmail = fmt.Errorf("%w: email", ErrDuplicate)
	// ErrDuplicateRoleID marks a student, staff or admin identifier that is already registered.
	ErrDuplicateRoleID = fmt.Errorf("%w: role identifier", ErrDuplicate)
)

// UserStore persists credentials and profiles.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

// SessionStore keeps server-side sessions.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// AnnouncementStore persists announcements.
type AnnouncementStore interface {
	Add(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	CountByCategory(ctx context.Context) (map[models.AnnouncementCategory]int, error)
}

// BookmarkStore persists student bookmarks.
type BookmarkStore interface {
	Save(ctx context.Context, bookmark *models.SavedAnnouncement) error
	Remove(ctx context.Context, userID, announcementID string) error
	ListByUser(ctx context.Context, userID string) ([]models.SavedAnnouncement, error)
}

// LeaveRequestStore persists leave and on-duty requests.
type LeaveRequestStore interface {
	Add(ctx context.Context, request *models.LeaveRequest) error
	Update(ctx context.Context, request *models.LeaveRequest) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, int, error)
	GetByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	UpdateStatus(ctx context.Context, change models.StatusChange) (*models.LeaveRequest, error)
	CountByStatus(ctx context.Context, studentUserID string) (map[models.LeaveStatus]int, error)
}

// AuditStore persists audit records.
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error)
}

// EventBus fans out store mutations to subscribers.
type EventBus interface {
	Publish(ctx context.Context, event models.Event) error
	Subscribe(ctx context.Context) (<-chan models.Event, func())
	Close() error
}

// Paginate normalises page inputs the same way for every store.
func Paginate(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size, (page - 1) * size
}
