package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisync-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("1", "user@unisync.edu", "hash", "User", string(models.RoleStaff), true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, active, last_login, created_at, updated_at FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("user@unisync.edu").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "user@unisync.edu")
	require.NoError(t, err)
	assert.Equal(t, "user@unisync.edu", user.Email)
	assert.Equal(t, models.RoleStaff, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithProfileCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO profiles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{Email: "s@unisync.edu", FullName: "S", Role: models.RoleStudent, Active: true}
	profile := &models.Profile{Role: models.RoleStudent}
	profile.SetRoleIdentifier("STU001")
	require.NoError(t, repo.CreateWithProfile(context.Background(), user, profile))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, user.ID, profile.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithProfileMapsUniqueViolations(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO profiles").WillReturnError(&pq.Error{Code: "23505", Constraint: "profiles_student_id_key"})
	mock.ExpectRollback()

	profile := &models.Profile{Role: models.RoleStudent}
	profile.SetRoleIdentifier("STU001")
	err := repo.CreateWithProfile(context.Background(), &models.User{Email: "s@unisync.edu", Role: models.RoleStudent}, profile)
	assert.ErrorIs(t, err, ErrDuplicateRoleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"user_id", "email", "full_name", "role", "student_id", "staff_id", "admin_id", "phone", "avatar_url", "created_at", "updated_at"}).
		AddRow("u1", "s@unisync.edu", "Student", "student", "STU001", nil, nil, nil, nil, now, now)
	mock.ExpectQuery("SELECT p.user_id, u.email").WithArgs("u1").WillReturnRows(rows)

	profile, err := repo.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "STU001", profile.RoleIdentifier())
	assert.True(t, profile.Consistent())
	assert.NoError(t, mock.ExpectationsWereMet())
}
