package models

import "time"

// LeaveType distinguishes a leave of absence from on-duty requests.
type LeaveType string

const (
	LeaveTypeLeave LeaveType = "leave"
	LeaveTypeOD    LeaveType = "od"
)

// Valid reports whether t is a known request type.
func (t LeaveType) Valid() bool {
	return t == LeaveTypeLeave || t == LeaveTypeOD
}

// LeaveStatus is the workflow position of a request.
type LeaveStatus string

const (
	LeaveStatusPending      LeaveStatus = "pending"
	LeaveStatusAcknowledged LeaveStatus = "acknowledged"
	LeaveStatusApproved     LeaveStatus = "approved"
	LeaveStatusRejected     LeaveStatus = "rejected"
)

// LeaveStatuses lists every status in workflow order.
var LeaveStatuses = []LeaveStatus{LeaveStatusPending, LeaveStatusAcknowledged, LeaveStatusApproved, LeaveStatusRejected}

// Valid reports whether s is a known status.
func (s LeaveStatus) Valid() bool {
	for _, known := range LeaveStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s LeaveStatus) Terminal() bool {
	return s == LeaveStatusApproved || s == LeaveStatusRejected
}

// LeaveAction is a workflow verb.
type LeaveAction string

const (
	LeaveActionAcknowledge    LeaveAction = "acknowledge"
	LeaveActionApprove        LeaveAction = "approve"
	LeaveActionReject         LeaveAction = "reject"
	LeaveActionDownloadLetter LeaveAction = "download_letter"
)

// LeaveActions lists every workflow verb.
var LeaveActions = []LeaveAction{LeaveActionAcknowledge, LeaveActionApprove, LeaveActionReject, LeaveActionDownloadLetter}

const (
	MinODPeriods = 1
	MaxODPeriods = 5
)

// LeaveRequest represents a leave or on-duty request row.
type LeaveRequest struct {
	ID             string      `db:"id" json:"id"`
	Type           LeaveType   `db:"type" json:"type"`
	Reason         string      `db:"reason" json:"reason"`
	Details        string      `db:"details" json:"details"`
	StartDate      Date        `db:"start_date" json:"start_date"`
	EndDate        Date        `db:"end_date" json:"end_date"`
	Periods        *int        `db:"periods" json:"periods,omitempty"`
	Status         LeaveStatus `db:"status" json:"status"`
	StudentUserID  string      `db:"student_user_id" json:"student_user_id"`
	StudentName    string      `db:"student_name" json:"student_name"`
	StudentID      string      `db:"student_id" json:"student_id"`
	AcknowledgedBy *string     `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time  `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	DecidedBy      *string     `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt      *time.Time  `db:"decided_at" json:"decided_at,omitempty"`
	LetterPath     *string     `db:"letter_path" json:"-"`
	SubmittedAt    time.Time   `db:"submitted_at" json:"submitted_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy of the request.
func (r LeaveRequest) Clone() LeaveRequest {
	out := r
	out.Periods = cloneInt(r.Periods)
	out.AcknowledgedBy = cloneString(r.AcknowledgedBy)
	out.AcknowledgedAt = cloneTime(r.AcknowledgedAt)
	out.DecidedBy = cloneString(r.DecidedBy)
	out.DecidedAt = cloneTime(r.DecidedAt)
	out.LetterPath = cloneString(r.LetterPath)
	return out
}

// LeaveRequestFilter narrows leave request listings.
type LeaveRequestFilter struct {
	StudentUserID string
	Status        *LeaveStatus
	Type          *LeaveType
	Page          int
	PageSize      int
}

// StatusChange describes a compare-and-set status update.
type StatusChange struct {
	ID      string
	From    LeaveStatus
	To      LeaveStatus
	Action  LeaveAction
	ActorID string
	At      time.Time
}
