package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unisync-api/internal/models"
)

const announcementColumns = `id, title, content, category, created_by, creator_id, file_name, file_path, created_at, updated_at`

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// GetAll returns announcements newest first, optionally filtered by category or creator.
func (r *AnnouncementRepository) GetAll(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Category != nil {
		where = append(where, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, string(*filter.Category))
	}
	if filter.CreatorID != "" {
		where = append(where, fmt.Sprintf("creator_id = $%d", len(args)+1))
		args = append(args, filter.CreatorID)
	}
	whereClause := strings.Join(where, " AND ")
	_, size, offset := Paginate(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s FROM announcements WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, announcementColumns, whereClause, size, offset)
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM announcements WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// GetByID returns an announcement by identifier.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := fmt.Sprintf(`SELECT %s FROM announcements WHERE id = $1`, announcementColumns)
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return &announcement, nil
}

// Add inserts a new announcement.
func (r *AnnouncementRepository) Add(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = now
	}
	announcement.UpdatedAt = now
	query := `INSERT INTO announcements (id, title, content, category, created_by, creator_id, file_name, file_path, created_at, updated_at)
VALUES (:id, :title, :content, :category, :created_by, :creator_id, :file_name, :file_path, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	announcement.UpdatedAt = time.Now().UTC()
	query := `UPDATE announcements SET title = :title, content = :content, category = :category, file_name = :file_name,
file_path = :file_path, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, announcement)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByCategory aggregates announcements per category.
func (r *AnnouncementRepository) CountByCategory(ctx context.Context) (map[models.AnnouncementCategory]int, error) {
	var rows []struct {
		Category models.AnnouncementCategory `db:"category"`
		Total    int                         `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT category, COUNT(*) AS total FROM announcements GROUP BY category`); err != nil {
		return nil, fmt.Errorf("count announcements by category: %w", err)
	}
	counts := make(map[models.AnnouncementCategory]int, len(models.AnnouncementCategories))
	for _, category := range models.AnnouncementCategories {
		counts[category] = 0
	}
	for _, row := range rows {
		counts[row.Category] = row.Total
	}
	return counts, nil
}
