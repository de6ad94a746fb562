package models

import (
	"strings"
	"time"
)

// UserRole represents the three portals of the application.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleStaff   UserRole = "staff"
	RoleAdmin   UserRole = "admin"
)

// Roles lists every valid role.
var Roles = []UserRole{RoleStudent, RoleStaff, RoleAdmin}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalises raw into a role.
func ParseRole(raw string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// User represents the credential record stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile is the role-bearing record associated with a user.
// Exactly one of StudentID, StaffID or AdminID is set and it matches Role.
type Profile struct {
	UserID    string    `db:"user_id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	StudentID *string   `db:"student_id" json:"student_id,omitempty"`
	StaffID   *string   `db:"staff_id" json:"staff_id,omitempty"`
	AdminID   *string   `db:"admin_id" json:"admin_id,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoleIdentifier returns the identifier matching the profile role.
func (p Profile) RoleIdentifier() string {
	var id *string
	switch p.Role {
	case RoleStudent:
		id = p.StudentID
	case RoleStaff:
		id = p.StaffID
	case RoleAdmin:
		id = p.AdminID
	}
	if id == nil {
		return ""
	}
	return *id
}

// SetRoleIdentifier stores id in the column matching the profile role and clears the others.
func (p *Profile) SetRoleIdentifier(id string) {
	p.StudentID, p.StaffID, p.AdminID = nil, nil, nil
	value := id
	switch p.Role {
	case RoleStudent:
		p.StudentID = &value
	case RoleStaff:
		p.StaffID = &value
	case RoleAdmin:
		p.AdminID = &value
	}
}

// Consistent reports whether exactly the role-matching identifier is set.
func (p Profile) Consistent() bool {
	set := 0
	for _, id := range []*string{p.StudentID, p.StaffID, p.AdminID} {
		if id != nil && *id != "" {
			set++
		}
	}
	return p.Role.Valid() && set == 1 && p.RoleIdentifier() != ""
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
