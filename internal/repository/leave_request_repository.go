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

const leaveRequestColumns = `id, type, reason, details, start_date, end_date, periods, status, student_user_id, student_name, student_id,
acknowledged_by, acknowledged_at, decided_by, decided_at, letter_path, submitted_at, updated_at`

// LeaveRequestRepository persists leave and on-duty requests.
type LeaveRequestRepository struct {
	db *sqlx.DB
}

// NewLeaveRequestRepository creates the repository.
func NewLeaveRequestRepository(db *sqlx.DB) *LeaveRequestRepository {
	return &LeaveRequestRepository{db: db}
}

// Add inserts a new request.
func (r *LeaveRequestRepository) Add(ctx context.Context, request *models.LeaveRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.SubmittedAt.IsZero() {
		request.SubmittedAt = now
	}
	request.UpdatedAt = now
	const query = `INSERT INTO leave_requests (id, type, reason, details, start_date, end_date, periods, status, student_user_id, student_name, student_id, submitted_at, updated_at)
VALUES (:id, :type, :reason, :details, :start_date, :end_date, :periods, :status, :student_user_id, :student_name, :student_id, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// Update overwrites the descriptive fields and letter path. Status only moves through UpdateStatus.
func (r *LeaveRequestRepository) Update(ctx context.Context, request *models.LeaveRequest) error {
	request.UpdatedAt = time.Now().UTC()
	const query = `UPDATE leave_requests SET reason = :reason, details = :details, start_date = :start_date, end_date = :end_date,
periods = :periods, letter_path = :letter_path, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, request)
	if err != nil {
		return fmt.Errorf("update leave request: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a request.
func (r *LeaveRequestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leave_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete leave request: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetAll lists requests newest first.
func (r *LeaveRequestRepository) GetAll(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentUserID != "" {
		where = append(where, fmt.Sprintf("student_user_id = $%d", len(args)+1))
		args = append(args, filter.StudentUserID)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.Type != nil {
		where = append(where, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, string(*filter.Type))
	}
	whereClause := strings.Join(where, " AND ")
	_, size, offset := Paginate(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s FROM leave_requests WHERE %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d`, leaveRequestColumns, whereClause, size, offset)
	var requests []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM leave_requests WHERE %s", whereClause), args...); err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}
	return requests, total, nil
}

// GetByID returns a request by identifier.
func (r *LeaveRequestRepository) GetByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM leave_requests WHERE id = $1`, leaveRequestColumns)
	var request models.LeaveRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	return &request, nil
}

// UpdateStatus moves a request from change.From to change.To only if it still holds change.From.
func (r *LeaveRequestRepository) UpdateStatus(ctx context.Context, change models.StatusChange) (*models.LeaveRequest, error) {
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}
	actorColumns := "decided_by = $4, decided_at = $5"
	if change.To == models.LeaveStatusAcknowledged {
		actorColumns = "acknowledged_by = $4, acknowledged_at = $5"
	}
	query := fmt.Sprintf(`UPDATE leave_requests SET status = $3, %s, updated_at = $5 WHERE id = $1 AND status = $2 RETURNING %s`, actorColumns, leaveRequestColumns)

	var request models.LeaveRequest
	err := r.db.QueryRowxContext(ctx, query, change.ID, string(change.From), string(change.To), change.ActorID, change.At).StructScan(&request)
	if err == nil {
		return &request, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("update leave status: %w", err)
	}
	if _, getErr := r.GetByID(ctx, change.ID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusConflict
}

// CountByStatus aggregates requests per status, optionally for a single student.
func (r *LeaveRequestRepository) CountByStatus(ctx context.Context, studentUserID string) (map[models.LeaveStatus]int, error) {
	query := `SELECT status, COUNT(*) AS total FROM leave_requests`
	args := []interface{}{}
	if studentUserID != "" {
		query += ` WHERE student_user_id = $1`
		args = append(args, studentUserID)
	}
	query += ` GROUP BY status`
	var rows []struct {
		Status models.LeaveStatus `db:"status"`
		Total  int                `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count leave requests by status: %w", err)
	}
	counts := make(map[models.LeaveStatus]int, len(models.LeaveStatuses))
	for _, status := range models.LeaveStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
