package dto

import (
	"time"

	"github.com/noah-isme/unisync-api/internal/models"
)

// CreateAnnouncementRequest is the payload for publishing an announcement.
type CreateAnnouncementRequest struct {
	Title    string `json:"title" form:"title" validate:"required,max=255"`
	Content  string `json:"content" form:"content" validate:"required"`
	Category string `json:"category" form:"category" validate:"required,announcement_category"`
}

// UpdateAnnouncementRequest carries a partial update. Omitted fields keep their value.
type UpdateAnnouncementRequest struct {
	Title      *string `json:"title" form:"title" validate:"omitempty,min=1,max=255"`
	Content    *string `json:"content" form:"content" validate:"omitempty,min=1"`
	Category   *string `json:"category" form:"category" validate:"omitempty,announcement_category"`
	RemoveFile bool    `json:"remove_file" form:"remove_file"`
}

// AnnouncementQuery filters announcement listings.
type AnnouncementQuery struct {
	Category string `form:"category"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// SavedAnnouncementView pairs a bookmark with the announcement it references.
type SavedAnnouncementView struct {
	Announcement models.Announcement `json:"announcement"`
	SavedAt      time.Time           `json:"saved_at"`
}

// AnnouncementPage is the cached shape of a listing.
type AnnouncementPage struct {
	Items []models.Announcement `json:"items"`
	Total int                   `json:"total"`
}
