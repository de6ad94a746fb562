package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/repository"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/validation"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

type sessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret    string
	AccessTokenExpiry    time.Duration
	SessionTTL           time.Duration
	Issuer               string
	ApprovedDomains      []string
	AuthorizedStudentIDs []string
}

// AuthService provides sign-in, sign-up, sign-out and session restore.
type AuthService struct {
	repo      authUserRepository
	sessions  sessionStore
	validator *validation.Validator
	audit     *AuditService
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, sessions sessionStore, validate *validation.Validator, audit *AuditService, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator(DefaultMinPasswordLength)
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = time.Hour
	}
	if config.SessionTTL < config.AccessTokenExpiry {
		config.SessionTTL = config.AccessTokenExpiry
	}
	return &AuthService{repo: repo, sessions: sessions, validator: validate, audit: audit, logger: logger, config: config, now: time.Now}
}

// SignIn authenticates against a portal. Role is the portal hint and RoleID the optional role-specific identifier.
func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest) (*models.SessionResponse, error) {
	req.Email = normaliseEmail(req.Email)
	req.RoleID = strings.TrimSpace(req.RoleID)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "account is inactive")
	}

	profile, err := s.repo.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to load profile")
	}
	if req.Role != "" && profile.Role != req.Role {
		return nil, appErrors.Clone(appErrors.ErrRoleMismatch, fmt.Sprintf("this account belongs to the %s portal", profile.Role))
	}
	if req.RoleID != "" && !strings.EqualFold(profile.RoleIdentifier(), req.RoleID) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRoleID, fmt.Sprintf("%s does not match this account", roleIDLabel(profile.Role)))
	}

	resp, err := s.openSession(ctx, user, profile)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}
	s.audit.Record(ctx, AuditEntry{
		ActorID:    user.ID,
		Action:     models.AuditActionLogin,
		Resource:   "session",
		ResourceID: resp.Session.ID,
		After:      map[string]string{"role": string(profile.Role)},
		IP:         req.IP,
		UserAgent:  req.UserAgent,
	})
	return resp, nil
}

// SignUp creates an identity with its profile and signs it in. When the account
// is stored but no session can be opened, the account stays in place and the
// response carries the anonymous state with the new profile so the caller signs in.
func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.SessionResponse, error) {
	req.Email = normaliseEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.RoleID = strings.ToUpper(strings.TrimSpace(req.RoleID))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	switch req.Role {
	case models.RoleStudent:
		if !s.studentAuthorized(req.RoleID) {
			return nil, appErrors.Clone(appErrors.ErrInvalidStudentID, "student id is not on the authorized list")
		}
	case models.RoleStaff, models.RoleAdmin:
		if !s.domainApproved(req.Email) {
			return nil, appErrors.Clone(appErrors.ErrInvalidDomain, "staff and admin accounts require an institutional email address")
		}
	}

	if existing, err := s.repo.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "an account with this email already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		Active:       true,
	}
	profile := &models.Profile{Role: req.Role}
	profile.SetRoleIdentifier(req.RoleID)
	if req.Phone != "" {
		phone := req.Phone
		profile.Phone = &phone
	}

	if err := s.repo.CreateWithProfile(ctx, user, profile); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "an account with this email already exists")
		case errors.Is(err, repository.ErrDuplicateRoleID):
			return nil, validation.Invalid("role_id", fmt.Sprintf("%s is already registered", roleIDLabel(req.Role)))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to create account")
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:    user.ID,
		Action:     models.AuditActionSignUp,
		Resource:   "user",
		ResourceID: user.ID,
		After:      map[string]string{"role": string(user.Role), "email": user.Email},
		IP:         req.IP,
		UserAgent:  req.UserAgent,
	})

	resp, err := s.openSession(ctx, user, profile)
	if err != nil {
		s.logger.Warn("account created without a session", zap.String("user_id", user.ID), zap.Error(err))
		profile.Email = user.Email
		profile.FullName = user.FullName
		return &models.SessionResponse{State: models.SessionAnonymous, Profile: profile}, nil
	}
	return resp, nil
}

// SignOut ends the session. It never fails for unknown, expired or empty sessions.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) *models.SessionResponse {
	anonymous := &models.SessionResponse{State: models.SessionAnonymous}
	if sessionID == "" {
		return anonymous
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("failed to delete session", zap.String("session_id", sessionID), zap.Error(err))
	}
	if err == nil && session != nil {
		s.audit.Record(ctx, AuditEntry{
			ActorID:    session.UserID,
			Action:     models.AuditActionLogout,
			Resource:   "session",
			ResourceID: session.ID,
		})
	}
	return anonymous
}

// Restore re-hydrates a session without re-authenticating. Unknown sessions yield the anonymous state.
func (s *AuthService) Restore(ctx context.Context, sessionID string) *models.SessionResponse {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return &models.SessionResponse{State: models.SessionAnonymous}
	}
	resp := &models.SessionResponse{State: models.SessionAuthenticated, Session: session}
	profile, err := s.repo.GetProfile(ctx, session.UserID)
	if err != nil {
		s.logger.Warn("failed to load profile for restored session", zap.String("session_id", session.ID), zap.Error(err))
		return resp
	}
	resp.Profile = profile
	return resp
}

// Session returns a live session or UNAUTHORIZED.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session required")
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or signed out")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to load session")
	}
	return session, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Authenticate validates a token and checks that its session is still live.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	session, err := s.Session(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session does not belong to token")
	}
	return claims, nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, profile *models.Profile) (*models.SessionResponse, error) {
	issuedAt := s.now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      profile.Role,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: issuedAt,
		ExpiresAt: issuedAt.Add(s.config.SessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to persist session")
	}
	token, err := s.generateAccessToken(user, session, issuedAt)
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	profile.Email = user.Email
	profile.FullName = user.FullName
	return &models.SessionResponse{
		State:       models.SessionAuthenticated,
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Session:     session,
		Profile:     profile,
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, session *models.Session, issuedAt time.Time) (string, error) {
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:    user.ID,
		SessionID: session.ID,
		Role:      session.Role,
		Email:     user.Email,
		FullName:  user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

// studentAuthorized reports whether id is admitted. An empty allow-list admits every id.
func (s *AuthService) studentAuthorized(id string) bool {
	if len(s.config.AuthorizedStudentIDs) == 0 {
		return true
	}
	for _, allowed := range s.config.AuthorizedStudentIDs {
		if strings.EqualFold(allowed, id) {
			return true
		}
	}
	return false
}

func (s *AuthService) domainApproved(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	for _, approved := range s.config.ApprovedDomains {
		if domain == approved || strings.HasSuffix(domain, "."+approved) {
			return true
		}
	}
	return false
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func roleIDLabel(role models.UserRole) string {
	switch role {
	case models.RoleStudent:
		return "student id"
	case models.RoleStaff:
		return "staff id"
	case models.RoleAdmin:
		return "admin id"
	}
	return "role id"
}
