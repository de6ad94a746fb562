package dto

import "github.com/noah-isme/unisync-api/internal/models"

// SubmitLeaveRequest is the student form for a leave or on-duty request.
type SubmitLeaveRequest struct {
	Type      string      `json:"type" validate:"required,leave_type"`
	Reason    string      `json:"reason" validate:"required,max=255"`
	Details   string      `json:"details" validate:"max=2000"`
	StartDate models.Date `json:"start_date"`
	EndDate   models.Date `json:"end_date"`
	Periods   *int        `json:"periods"`
}

// LeaveQuery filters leave listings and exports.
type LeaveQuery struct {
	Status   string `form:"status"`
	Type     string `form:"type"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// LeaveRequestView decorates a request with the actions the caller may take next.
type LeaveRequestView struct {
	models.LeaveRequest
	AllowedActions []models.LeaveAction `json:"allowed_actions"`
	LetterURL      string               `json:"letter_url,omitempty"`
}

// ExportFile is a rendered export ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
