package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unisync-api/internal/models"
)

// BookmarkRepository stores saved announcements per student.
type BookmarkRepository struct {
	db *sqlx.DB
}

// NewBookmarkRepository creates the repository.
func NewBookmarkRepository(db *sqlx.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Save records a bookmark. Saving twice keeps the original timestamp.
func (r *BookmarkRepository) Save(ctx context.Context, bookmark *models.SavedAnnouncement) error {
	if bookmark.SavedAt.IsZero() {
		bookmark.SavedAt = time.Now().UTC()
	}
	const query = `INSERT INTO saved_announcements (user_id, announcement_id, saved_at) VALUES (:user_id, :announcement_id, :saved_at)
ON CONFLICT (user_id, announcement_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, bookmark); err != nil {
		return fmt.Errorf("save bookmark: %w", err)
	}
	return nil
}

// Remove deletes a bookmark; removing a missing bookmark is not an error.
func (r *BookmarkRepository) Remove(ctx context.Context, userID, announcementID string) error {
	const query = `DELETE FROM saved_announcements WHERE user_id = $1 AND announcement_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, announcementID); err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}

// ListByUser returns bookmarks newest first.
func (r *BookmarkRepository) ListByUser(ctx context.Context, userID string) ([]models.SavedAnnouncement, error) {
	const query = `SELECT user_id, announcement_id, saved_at FROM saved_announcements WHERE user_id = $1 ORDER BY saved_at DESC`
	var bookmarks []models.SavedAnnouncement
	if err := r.db.SelectContext(ctx, &bookmarks, query, userID); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return bookmarks, nil
}
