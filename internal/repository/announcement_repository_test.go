package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisync-api/internal/models"
)

func TestAnnouncementGetAllByCategory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "content", "category", "created_by", "creator_id", "file_name", "file_path", "created_at", "updated_at"}).
		AddRow("a1", "Drive", "Placement drive", "placement", "Staff", "s1", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM announcements WHERE 1=1 AND category = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("placement").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM announcements WHERE 1=1 AND category = $1")).
		WithArgs("placement").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	category := models.CategoryPlacement
	items, total, err := repo.GetAll(context.Background(), models.AnnouncementFilter{Category: &category})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.CategoryPlacement, items[0].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM announcements WHERE id = $1")).WithArgs("a1").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "a1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookmarkSaveIgnoresDuplicates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookmarkRepository(db)

	mock.ExpectExec("INSERT INTO saved_announcements .* ON CONFLICT \\(user_id, announcement_id\\) DO NOTHING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), &models.SavedAnnouncement{UserID: "u1", AnnouncementID: "a1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionLogin, Resource: "session"}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
