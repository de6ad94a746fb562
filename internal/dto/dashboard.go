package dto

import "github.com/noah-isme/unisync-api/internal/models"

// DashboardResponse is the per-portal summary returned by dashboard routes.
type DashboardResponse struct {
	Role                models.UserRole                     `json:"role"`
	Profile             *models.Profile                     `json:"profile,omitempty"`
	AnnouncementCounts  map[models.AnnouncementCategory]int `json:"announcement_counts"`
	LatestAnnouncements []models.Announcement               `json:"latest_announcements"`
	RequestCounts       map[models.LeaveStatus]int          `json:"request_counts"`
	ActionableRequests  int                                 `json:"actionable_requests"`
	SavedAnnouncements  int                                 `json:"saved_announcements,omitempty"`
	OwnAnnouncements    int                                 `json:"own_announcements,omitempty"`
}
