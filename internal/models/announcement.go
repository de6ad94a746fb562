package models

import "time"

// AnnouncementCategory classifies announcements for filtering and display.
type AnnouncementCategory string

const (
	CategoryEmergency AnnouncementCategory = "emergency"
	CategoryImportant AnnouncementCategory = "important"
	CategoryPlacement AnnouncementCategory = "placement"
	CategoryEvent     AnnouncementCategory = "event"
	CategoryGeneral   AnnouncementCategory = "general"
)

// AnnouncementCategories lists categories in display order.
var AnnouncementCategories = []AnnouncementCategory{
	CategoryEmergency,
	CategoryImportant,
	CategoryPlacement,
	CategoryEvent,
	CategoryGeneral,
}

// Valid reports whether c is a known category.
func (c AnnouncementCategory) Valid() bool {
	for _, known := range AnnouncementCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Announcement represents a persisted announcement row.
// FileURL is derived from FilePath when the record is served.
type Announcement struct {
	ID        string               `db:"id" json:"id"`
	Title     string               `db:"title" json:"title"`
	Content   string               `db:"content" json:"content"`
	Category  AnnouncementCategory `db:"category" json:"category"`
	CreatedBy string               `db:"created_by" json:"created_by"`
	CreatorID string               `db:"creator_id" json:"creator_id"`
	FileName  *string              `db:"file_name" json:"file_name,omitempty"`
	FilePath  *string              `db:"file_path" json:"-"`
	FileURL   *string              `db:"-" json:"file_url,omitempty"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt time.Time            `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy of the announcement.
func (a Announcement) Clone() Announcement {
	out := a
	out.FileName = cloneString(a.FileName)
	out.FilePath = cloneString(a.FilePath)
	out.FileURL = cloneString(a.FileURL)
	return out
}

// AnnouncementFilter allows listing announcements.
type AnnouncementFilter struct {
	Category  *AnnouncementCategory
	CreatorID string
	Page      int
	PageSize  int
}

// AnnouncementPatch carries the fields of a partial update. Nil fields are left untouched.
type AnnouncementPatch struct {
	Title      *string
	Content    *string
	Category   *AnnouncementCategory
	RemoveFile bool
}

// SavedAnnouncement is a student bookmark, keyed by announcement id.
type SavedAnnouncement struct {
	UserID         string    `db:"user_id" json:"user_id"`
	AnnouncementID string    `db:"announcement_id" json:"announcement_id"`
	SavedAt        time.Time `db:"saved_at" json:"saved_at"`
}

// ShareReference is the portable reference produced when sharing an announcement.
type ShareReference struct {
	AnnouncementID string `json:"announcement_id"`
	Title          string `json:"title"`
	Reference      string `json:"reference"`
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
