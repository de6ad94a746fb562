package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/dto"
	"github.com/noah-isme/unisync-api/internal/models"
)

type dashboardAnnouncements interface {
	List(ctx context.Context, query dto.AnnouncementQuery) ([]models.Announcement, *models.Pagination, error)
	Counts(ctx context.Context) (map[models.AnnouncementCategory]int, error)
	ListSaved(ctx context.Context, actor Actor) ([]dto.SavedAnnouncementView, error)
	CountOwned(ctx context.Context, creatorID string) (int, error)
}

type dashboardRequests interface {
	Counts(ctx context.Context, studentUserID string) (map[models.LeaveStatus]int, error)
	Actionable(ctx context.Context, actor Actor, limit int) ([]dto.LeaveRequestView, error)
}

type dashboardProfiles interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	LatestLimit     int
	ActionableLimit int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Announcements dashboardAnnouncements
	Requests      dashboardRequests
	Profiles      dashboardProfiles
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// DashboardService composes the per-portal summaries.
type DashboardService struct {
	announcements dashboardAnnouncements
	requests      dashboardRequests
	profiles      dashboardProfiles
	logger        *zap.Logger
	cfg           DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.LatestLimit <= 0 {
		cfg.LatestLimit = 5
	}
	if cfg.ActionableLimit <= 0 {
		cfg.ActionableLimit = 20
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		announcements: params.Announcements,
		requests:      params.Requests,
		profiles:      params.Profiles,
		logger:        logger,
		cfg:           cfg,
	}
}

// Summary returns the dashboard of the actor's portal.
func (s *DashboardService) Summary(ctx context.Context, actor Actor) (*dto.DashboardResponse, error) {
	out := &dto.DashboardResponse{Role: actor.Role}

	profile, err := s.profiles.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	out.Profile = profile

	if out.AnnouncementCounts, err = s.announcements.Counts(ctx); err != nil {
		return nil, err
	}
	if out.LatestAnnouncements, _, err = s.announcements.List(ctx, dto.AnnouncementQuery{Page: 1, PageSize: s.cfg.LatestLimit}); err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleStudent:
		if out.RequestCounts, err = s.requests.Counts(ctx, actor.ID); err != nil {
			return nil, err
		}
		saved, err := s.announcements.ListSaved(ctx, actor)
		if err != nil {
			return nil, err
		}
		out.SavedAnnouncements = len(saved)
	case models.RoleStaff, models.RoleAdmin:
		if out.RequestCounts, err = s.requests.Counts(ctx, ""); err != nil {
			return nil, err
		}
		actionable, err := s.requests.Actionable(ctx, actor, s.cfg.ActionableLimit)
		if err != nil {
			return nil, err
		}
		out.ActionableRequests = len(actionable)
		if out.OwnAnnouncements, err = s.announcements.CountOwned(ctx, actor.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
