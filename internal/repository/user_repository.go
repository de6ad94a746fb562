package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/unisync-api/internal/models"
)

const uniqueViolation = "23505"

// UserRepository provides database access for users and their profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, role, active, last_login, created_at, updated_at FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, role, active, last_login, created_at, updated_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// CreateWithProfile inserts the user and its profile in one transaction.
func (r *UserRepository) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
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

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const userQuery = `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at) VALUES (:id, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
		return mapUniqueViolation(err, "create user")
	}
	const profileQuery = `INSERT INTO profiles (user_id, role, student_id, staff_id, admin_id, phone, avatar_url, created_at, updated_at) VALUES (:user_id, :role, :student_id, :staff_id, :admin_id, :phone, :avatar_url, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, profileQuery, profile); err != nil {
		return mapUniqueViolation(err, "create profile")
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}
	return nil
}

// GetProfile returns the profile joined with its user.
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	const query = `SELECT p.user_id, u.email, u.full_name, p.role, p.student_id, p.staff_id, p.admin_id, p.phone, p.avatar_url, p.created_at, p.updated_at
FROM profiles p JOIN users u ON u.id = p.user_id WHERE p.user_id = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile updates the mutable profile fields. Role and identifiers are never written.
func (r *UserRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update profile: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE users SET full_name = $2, updated_at = $3 WHERE id = $1`, profile.UserID, profile.FullName, profile.UpdatedAt); err != nil {
		return fmt.Errorf("update user name: %w", err)
	}
	const query = `UPDATE profiles SET phone = :phone, avatar_url = :avatar_url, updated_at = :updated_at WHERE user_id = :user_id`
	res, err := tx.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update profile: %w", err)
	}
	return nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func mapUniqueViolation(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		if strings.Contains(pqErr.Constraint, "email") {
			return fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
		}
		return fmt.Errorf("%s: %w", op, ErrDuplicateRoleID)
	}
	return fmt.Errorf("%s: %w", op, err)
}
