package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/repository/memory"
	"github.com/noah-isme/unisync-api/pkg/export"
	"github.com/noah-isme/unisync-api/pkg/jobs"
	"github.com/noah-isme/unisync-api/pkg/storage"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.LeaveNotification
	fail bool
}

func (n *recordingNotifier) Send(_ context.Context, notification models.LeaveNotification) models.NotificationResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	if n.fail {
		return models.NotificationResult{Success: false, Error: "smtp unavailable"}
	}
	return models.NotificationResult{Success: true, Message: "sent"}
}

func (n *recordingNotifier) events() []models.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.NotificationEvent, 0, len(n.sent))
	for _, item := range n.sent {
		out = append(out, item.Event)
	}
	return out
}

func (n *recordingNotifier) notifications() []models.LeaveNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.LeaveNotification(nil), n.sent...)
}

type harness struct {
	users         *memory.UserStore
	sessions      *memory.SessionStore
	announcements *memory.AnnouncementStore
	bookmarks     *memory.BookmarkStore
	requests      *memory.LeaveRequestStore
	auditStore    *memory.AuditStore
	bus           *memory.EventBus
	notifier      *recordingNotifier

	metrics       *MetricsService
	files         *FileService
	auth          *AuthService
	announcement  *AnnouncementService
	leave         *LeaveService
	notifications *NotificationService
	profiles      *ProfileService

	actors map[models.UserRole]Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	h := &harness{
		users:         memory.NewUserStore(),
		sessions:      memory.NewSessionStore(),
		announcements: memory.NewAnnouncementStore(),
		bookmarks:     memory.NewBookmarkStore(),
		requests:      memory.NewLeaveRequestStore(),
		auditStore:    memory.NewAuditStore(),
		bus:           memory.NewEventBus(64),
		notifier:      &recordingNotifier{},
		metrics:       NewMetricsService(),
		actors:        map[models.UserRole]Actor{},
	}
	require.NoError(t, memory.Seed(ctx, h.users, h.announcements, memory.DefaultAccounts))

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour, "http://localhost:8080")
	h.files = NewFileService(local, signer, FileConfig{MaxFileSizeBytes: 1 << 20}, nil)

	validate := NewValidator(DefaultMinPasswordLength)
	audit := NewAuditService(h.auditStore, nil)
	events := NewEventService(h.bus, h.metrics, nil)

	h.auth = NewAuthService(h.users, h.sessions, validate, audit, nil, AuthConfig{
		AccessTokenSecret:    "test-secret",
		AccessTokenExpiry:    time.Hour,
		SessionTTL:           2 * time.Hour,
		Issuer:               "unisync-test",
		ApprovedDomains:      []string{"unisync.edu"},
		AuthorizedStudentIDs: []string{"STU001", "STU002"},
	})
	h.announcement = NewAnnouncementService(h.announcements, h.bookmarks, h.files, nil, events, audit, validate, nil)
	h.notifications = NewNotificationService(h.notifier, h.metrics, nil, NotificationConfig{
		StaffEmail: "staff-office@unisync.edu",
		AdminEmail: "registrar@unisync.edu",
		Queue:      jobs.QueueConfig{Workers: 1, BufferSize: 16, MaxRetries: 0, RetryDelay: time.Millisecond},
	})
	h.notifications.Start(ctx)
	t.Cleanup(h.notifications.Stop)
	letters := NewLetterService(export.NewLetterRenderer(), h.files, "UniSync University", nil)
	h.leave = NewLeaveService(h.requests, h.users, letters, h.notifications, events, audit, h.metrics, validate, nil)
	h.profiles = NewProfileService(h.users, h.files, nil, validate, audit, nil)

	for _, account := range memory.DefaultAccounts {
		user, err := h.users.FindByEmail(ctx, account.Email)
		require.NoError(t, err)
		h.actors[account.Role] = Actor{ID: user.ID, Role: user.Role, Name: user.FullName, Email: user.Email}
	}
	return h
}

func (h *harness) student() Actor { return h.actors[models.RoleStudent] }
func (h *harness) staff() Actor   { return h.actors[models.RoleStaff] }
func (h *harness) admin() Actor   { return h.actors[models.RoleAdmin] }

func intPtr(v int) *int { return &v }

func mustDate(t *testing.T, value string) models.Date {
	t.Helper()
	d, err := models.ParseDate(value)
	require.NoError(t, err)
	return d
}
