package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionState mirrors the client session lifecycle.
type SessionState string

const (
	SessionAnonymous      SessionState = "anonymous"
	SessionAuthenticating SessionState = "authenticating"
	SessionAuthenticated  SessionState = "authenticated"
)

// SignInRequest holds credentials for a portal login. Role is the portal hint.
type SignInRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required"`
	Role      UserRole `json:"role,omitempty" validate:"omitempty,portal_role"`
	RoleID    string   `json:"role_id,omitempty" validate:"omitempty,max=64"`
	IP        string   `json:"-"`
	UserAgent string   `json:"-"`
}

// SignUpRequest creates an identity and its profile.
type SignUpRequest struct {
	Email     string   `json:"email" validate:"required,email,max=255"`
	Password  string   `json:"password" validate:"required,strong_password"`
	Role      UserRole `json:"role" validate:"required,portal_role"`
	FullName  string   `json:"full_name" validate:"required,max=255"`
	RoleID    string   `json:"role_id" validate:"required,alphanum,max=64"`
	Phone     string   `json:"phone,omitempty" validate:"omitempty,e164"`
	IP        string   `json:"-"`
	UserAgent string   `json:"-"`
}

// SessionResponse describes the outcome of sign-in, sign-up and restore.
type SessionResponse struct {
	State       SessionState `json:"state"`
	AccessToken string       `json:"access_token,omitempty"`
	ExpiresIn   int64        `json:"expires_in,omitempty"`
	Session     *Session     `json:"session,omitempty"`
	Profile     *Profile     `json:"profile,omitempty"`
}

// UpdateProfileRequest changes the mutable profile fields. Role and role id are immutable.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,e164"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	SessionID string   `json:"sid"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Session is the server-side record that lets a client re-hydrate without re-authenticating.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      UserRole  `json:"role"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}
