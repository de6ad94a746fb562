package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/dto"
	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/validation"
)

const announcementCachePrefix = "announcements:"

type announcementStore interface {
	Add(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	CountByCategory(ctx context.Context) (map[models.AnnouncementCategory]int, error)
}

type bookmarkStore interface {
	Save(ctx context.Context, bookmark *models.SavedAnnouncement) error
	Remove(ctx context.Context, userID, announcementID string) error
	ListByUser(ctx context.Context, userID string) ([]models.SavedAnnouncement, error)
}

// AnnouncementService manages announcements, attachments and student bookmarks.
type AnnouncementService struct {
	store     announcementStore
	bookmarks bookmarkStore
	files     *FileService
	cache     *CacheService
	events    *EventService
	audit     *AuditService
	validator *validation.Validator
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(store announcementStore, bookmarks bookmarkStore, files *FileService, cache *CacheService, events *EventService, audit *AuditService, validate *validation.Validator, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator(DefaultMinPasswordLength)
	}
	return &AnnouncementService{
		store:     store,
		bookmarks: bookmarks,
		files:     files,
		cache:     cache,
		events:    events,
		audit:     audit,
		validator: validate,
		logger:    logger,
		cacheTTL:  time.Minute,
	}
}

// List returns announcements newest first, optionally narrowed to one category.
func (s *AnnouncementService) List(ctx context.Context, query dto.AnnouncementQuery) ([]models.Announcement, *models.Pagination, error) {
	filter := models.AnnouncementFilter{Page: query.Page, PageSize: query.PageSize}
	if query.Category != "" {
		category := models.AnnouncementCategory(strings.ToLower(query.Category))
		if !category.Valid() {
			return nil, nil, validation.Invalid("category", "category must be one of emergency, important, placement, event or general")
		}
		filter.Category = &category
	}

	key := fmt.Sprintf("%slist:%s:%d:%d", announcementCachePrefix, query.Category, filter.Page, filter.PageSize)
	var cached dto.AnnouncementPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Items, pagination(filter.Page, filter.PageSize, cached.Total), nil
	}

	items, total, err := s.store.GetAll(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to list announcements")
	}
	if items == nil {
		items = []models.Announcement{}
	}
	items = s.decorateAll(items)
	_ = s.cache.Set(ctx, key, dto.AnnouncementPage{Items: items, Total: total}, s.cacheTTL)
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single announcement.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(announcement)
	return announcement, nil
}

// Create publishes an announcement. Only staff and admin may publish.
func (s *AnnouncementService) Create(ctx context.Context, actor Actor, req dto.CreateAnnouncementRequest, attachment *Upload) (*models.Announcement, error) {
	if actor.Role != models.RoleStaff && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff and admin can publish announcements")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		Title:     req.Title,
		Content:   req.Content,
		Category:  models.AnnouncementCategory(req.Category),
		CreatedBy: actor.Name,
		CreatorID: actor.ID,
	}
	if attachment != nil {
		if err := s.attach(announcement, *attachment); err != nil {
			return nil, err
		}
	}
	if err := s.store.Add(ctx, announcement); err != nil {
		if announcement.FilePath != nil {
			s.files.Delete(*announcement.FilePath)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to create announcement")
	}

	s.afterMutation(ctx, actor, models.EventCreated, announcement.ID)
	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     models.AuditActionAnnouncementCreate,
		Resource:   models.EntityAnnouncement,
		ResourceID: announcement.ID,
		After:      announcement,
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
	})
	s.decorate(announcement)
	return announcement, nil
}

// Update overwrites the supplied fields. Allowed for admins and for the staff member who created it.
func (s *AnnouncementService) Update(ctx context.Context, actor Actor, id string, req dto.UpdateAnnouncementRequest, attachment *Upload) (*models.Announcement, error) {
	if req.Category != nil {
		category := strings.ToLower(strings.TrimSpace(*req.Category))
		req.Category = &category
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	announcement, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManageAnnouncement(actor, announcement) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator or an admin can edit this announcement")
	}
	before := announcement.Clone()

	if req.Title != nil {
		announcement.Title = *req.Title
	}
	if req.Content != nil {
		announcement.Content = *req.Content
	}
	if req.Category != nil {
		announcement.Category = models.AnnouncementCategory(*req.Category)
	}
	var obsolete string
	if before.FilePath != nil && (req.RemoveFile || attachment != nil) {
		obsolete = *before.FilePath
		announcement.FileName = nil
		announcement.FilePath = nil
	}
	if attachment != nil {
		if err := s.attach(announcement, *attachment); err != nil {
			return nil, err
		}
	}
	if err := s.store.Update(ctx, announcement); err != nil {
		if attachment != nil && announcement.FilePath != nil {
			s.files.Delete(*announcement.FilePath)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to update announcement")
	}
	if obsolete != "" {
		s.files.Delete(obsolete)
	}

	s.afterMutation(ctx, actor, models.EventUpdated, announcement.ID)
	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     models.AuditActionAnnouncementUpdate,
		Resource:   models.EntityAnnouncement,
		ResourceID: announcement.ID,
		Before:     before,
		After:      announcement,
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
	})
	s.decorate(announcement)
	return announcement, nil
}

// Delete removes an announcement. Allowed for admins and for the staff member who created it.
func (s *AnnouncementService) Delete(ctx context.Context, actor Actor, id string) error {
	announcement, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !CanManageAnnouncement(actor, announcement) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the creator or an admin can delete this announcement")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to delete announcement")
	}
	if announcement.FilePath != nil {
		s.files.Delete(*announcement.FilePath)
	}
	s.afterMutation(ctx, actor, models.EventDeleted, id)
	s.audit.Record(ctx, AuditEntry{
		ActorID:    actor.ID,
		Action:     models.AuditActionAnnouncementDelete,
		Resource:   models.EntityAnnouncement,
		ResourceID: id,
		Before:     announcement,
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
	})
	return nil
}

// Save bookmarks an announcement for a student. Saving twice is a no-op.
func (s *AnnouncementService) Save(ctx context.Context, actor Actor, id string) (*models.SavedAnnouncement, error) {
	if err := requireStudent(actor, "only students can save announcements"); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	bookmark := &models.SavedAnnouncement{UserID: actor.ID, AnnouncementID: id, SavedAt: time.Now().UTC()}
	if err := s.bookmarks.Save(ctx, bookmark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to save announcement")
	}
	return bookmark, nil
}

// Unsave removes a bookmark. Removing a missing bookmark is a no-op.
func (s *AnnouncementService) Unsave(ctx context.Context, actor Actor, id string) error {
	if err := requireStudent(actor, "only students can save announcements"); err != nil {
		return err
	}
	if err := s.bookmarks.Remove(ctx, actor.ID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to remove saved announcement")
	}
	return nil
}

// ListSaved returns the student's bookmarks, skipping announcements deleted since they were saved.
func (s *AnnouncementService) ListSaved(ctx context.Context, actor Actor) ([]dto.SavedAnnouncementView, error) {
	if err := requireStudent(actor, "only students can save announcements"); err != nil {
		return nil, err
	}
	bookmarks, err := s.bookmarks.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to list saved announcements")
	}
	views := make([]dto.SavedAnnouncementView, 0, len(bookmarks))
	for _, bookmark := range bookmarks {
		announcement, err := s.store.GetByID(ctx, bookmark.AnnouncementID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to load saved announcement")
		}
		s.decorate(announcement)
		views = append(views, dto.SavedAnnouncementView{Announcement: *announcement, SavedAt: bookmark.SavedAt})
	}
	return views, nil
}

// Share returns a portable reference to an announcement.
func (s *AnnouncementService) Share(ctx context.Context, id string) (*models.ShareReference, error) {
	announcement, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ShareReference{
		AnnouncementID: announcement.ID,
		Title:          announcement.Title,
		Reference:      ShareReferenceFor(announcement.ID),
	}, nil
}

// Counts aggregates announcements per category.
func (s *AnnouncementService) Counts(ctx context.Context) (map[models.AnnouncementCategory]int, error) {
	counts, err := s.store.CountByCategory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to count announcements")
	}
	return counts, nil
}

// CanManageAnnouncement reports whether actor may edit or delete announcement.
func CanManageAnnouncement(actor Actor, announcement *models.Announcement) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStaff:
		return announcement != nil && actor.ID != "" && announcement.CreatorID == actor.ID
	}
	return false
}

// ShareReferenceFor builds the share reference of an announcement id.
func ShareReferenceFor(id string) string {
	return "unisync://announcements/" + id
}

func (s *AnnouncementService) load(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to load announcement")
	}
	return announcement, nil
}

func (s *AnnouncementService) attach(announcement *models.Announcement, upload Upload) error {
	if s.files == nil {
		return appErrors.Clone(appErrors.ErrExternalService, "file storage is not configured")
	}
	relPath, err := s.files.SaveUpload("announcements", upload)
	if err != nil {
		return err
	}
	name := DisplayName(relPath)
	announcement.FileName = &name
	announcement.FilePath = &relPath
	return nil
}

func (s *AnnouncementService) afterMutation(ctx context.Context, actor Actor, kind models.EventType, id string) {
	_ = s.cache.Invalidate(ctx, announcementCachePrefix+"*")
	_ = s.events.Publish(ctx, kind, models.EntityAnnouncement, id, actor.ID, nil)
}

func (s *AnnouncementService) decorate(announcement *models.Announcement) {
	if announcement.FilePath == nil || s.files == nil {
		return
	}
	url, err := s.files.URL(FileKindAttachment, *announcement.FilePath)
	if err != nil {
		s.logger.Warn("failed to sign attachment url", zap.String("announcement_id", announcement.ID), zap.Error(err))
		return
	}
	announcement.FileURL = &url
}

func (s *AnnouncementService) decorateAll(items []models.Announcement) []models.Announcement {
	for i := range items {
		s.decorate(&items[i])
	}
	return items
}

func requireStudent(actor Actor, message string) error {
	if actor.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, message)
	}
	return nil
}

// CountOwned returns how many announcements creatorID has published.
func (s *AnnouncementService) CountOwned(ctx context.Context, creatorID string) (int, error) {
	_, total, err := s.store.GetAll(ctx, models.AnnouncementFilter{CreatorID: creatorID, Page: 1, PageSize: 1})
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to count announcements")
	}
	return total, nil
}
