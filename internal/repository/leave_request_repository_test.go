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

var leaveColumnNames = []string{"id", "type", "reason", "details", "start_date", "end_date", "periods", "status", "student_user_id", "student_name", "student_id",
	"acknowledged_by", "acknowledged_at", "decided_by", "decided_at", "letter_path", "submitted_at", "updated_at"}

func TestLeaveRequestUpdateStatusApplies(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRequestRepository(db)

	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	rows := sqlmock.NewRows(leaveColumnNames).
		AddRow("r1", "leave", "Medical", "", day, day, nil, "approved", "u1", "Student", "STU001", nil, nil, "staff-1", now, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE leave_requests SET status = $3, decided_by = $4, decided_at = $5, updated_at = $5 WHERE id = $1 AND status = $2 RETURNING")).
		WithArgs("r1", "pending", "approved", "staff-1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := repo.UpdateStatus(context.Background(), models.StatusChange{ID: "r1", From: models.LeaveStatusPending, To: models.LeaveStatusApproved, ActorID: "staff-1"})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, got.Status)
	assert.Equal(t, "2024-05-06", got.StartDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRequestUpdateStatusConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRequestRepository(db)

	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE leave_requests SET status = $3, acknowledged_by = $4, acknowledged_at = $5")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT .* FROM leave_requests WHERE id = \\$1").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(leaveColumnNames).
			AddRow("r1", "od", "Event", "", day, day, 2, "approved", "u1", "Student", "STU001", nil, nil, "admin-1", now, nil, now, now))

	_, err := repo.UpdateStatus(context.Background(), models.StatusChange{ID: "r1", From: models.LeaveStatusPending, To: models.LeaveStatusAcknowledged, ActorID: "staff-1"})
	assert.ErrorIs(t, err, ErrStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRequestUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRequestRepository(db)

	mock.ExpectQuery("UPDATE leave_requests").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT .* FROM leave_requests WHERE id = \\$1").WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), models.StatusChange{ID: "nope", From: models.LeaveStatusPending, To: models.LeaveStatusApproved})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRequestGetAllFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRequestRepository(db)

	status := models.LeaveStatusPending
	mock.ExpectQuery(regexp.QuoteMeta("FROM leave_requests WHERE 1=1 AND student_user_id = $1 AND status = $2 ORDER BY submitted_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("u1", "pending").
		WillReturnRows(sqlmock.NewRows(leaveColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leave_requests WHERE 1=1 AND student_user_id = $1 AND status = $2")).
		WithArgs("u1", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := repo.GetAll(context.Background(), models.LeaveRequestFilter{StudentUserID: "u1", Status: &status})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRequestCountByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS total FROM leave_requests WHERE student_user_id = $1 GROUP BY status")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).AddRow("pending", 2).AddRow("approved", 1))

	counts, err := repo.CountByStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.LeaveStatusPending])
	assert.Equal(t, 1, counts[models.LeaveStatusApproved])
	assert.Equal(t, 0, counts[models.LeaveStatusRejected])
	assert.NoError(t, mock.ExpectationsWereMet())
}
