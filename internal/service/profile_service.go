package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/storage"
	"github.com/noah-isme/unisync-api/pkg/validation"
)

type profileRepository interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
}

type avatarProcessor interface {
	Process(r io.Reader) ([]byte, error)
}

// ProfileService manages the signed-in user's profile.
type ProfileService struct {
	repo      profileRepository
	files     *FileService
	avatars   avatarProcessor
	validator *validation.Validator
	audit     *AuditService
	logger    *zap.Logger
}

// NewProfileService constructs the service.
func NewProfileService(repo profileRepository, files *FileService, avatars avatarProcessor, validate *validation.Validator, audit *AuditService, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator(DefaultMinPasswordLength)
	}
	return &ProfileService{repo: repo, files: files, avatars: avatars, validator: validate, audit: audit, logger: logger}
}

// Get returns the profile of userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to load profile")
	}
	s.decorate(profile)
	return profile, nil
}

// Update changes the name and phone. Role and role identifiers are immutable.
func (s *ProfileService) Update(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, error) {
	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)
		req.FullName = &trimmed
	}
	clearPhone := req.Phone != nil && strings.TrimSpace(*req.Phone) == ""
	if clearPhone {
		req.Phone = nil
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := *profile
	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	switch {
	case clearPhone:
		profile.Phone = nil
	case req.Phone != nil:
		phone := *req.Phone
		profile.Phone = &phone
	}
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to update profile")
	}
	s.audit.Record(ctx, AuditEntry{
		ActorID:    userID,
		Action:     models.AuditActionProfileUpdate,
		Resource:   "profile",
		ResourceID: userID,
		Before:     map[string]interface{}{"full_name": before.FullName, "phone": before.Phone},
		After:      map[string]interface{}{"full_name": profile.FullName, "phone": profile.Phone},
	})
	s.decorate(profile)
	return profile, nil
}

// UploadAvatar normalises the image into a square thumbnail and stores it as the profile avatar.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, upload Upload) (*models.Profile, error) {
	if s.files == nil || s.avatars == nil {
		return nil, appErrors.Clone(appErrors.ErrExternalService, "avatar storage is not configured")
	}
	if upload.Reader == nil {
		return nil, validation.Invalid("avatar", "image is required")
	}
	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	thumbnail, err := s.avatars.Process(io.LimitReader(upload.Reader, s.files.config.MaxFileSizeBytes))
	if err != nil {
		return nil, validation.Invalid("avatar", "avatar must be a png, jpeg or gif image")
	}
	relPath := storage.UniqueName("avatars", userID+".png")
	if err := s.files.SaveBytes(relPath, thumbnail); err != nil {
		return nil, err
	}
	previous := profile.AvatarURL
	profile.AvatarURL = &relPath
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		s.files.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to update profile")
	}
	if previous != nil && strings.HasPrefix(*previous, "avatars/") {
		s.files.Delete(*previous)
	}
	s.decorate(profile)
	return profile, nil
}

func (s *ProfileService) load(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to load profile")
	}
	return profile, nil
}

// decorate swaps the stored avatar path for a signed URL.
func (s *ProfileService) decorate(profile *models.Profile) {
	if profile.AvatarURL == nil || s.files == nil || !strings.HasPrefix(*profile.AvatarURL, "avatars/") {
		return
	}
	url, err := s.files.URL(FileKindAvatar, *profile.AvatarURL)
	if err != nil {
		s.logger.Warn("failed to sign avatar url", zap.Error(err))
		return
	}
	profile.AvatarURL = &url
}
