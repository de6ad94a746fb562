package models

// NotificationEvent describes why a notification is sent.
type NotificationEvent string

const (
	NotificationLeaveSubmitted NotificationEvent = "leave_submitted"
	NotificationLeaveDecided   NotificationEvent = "leave_decided"
)

// LeaveNotification is the payload handed to the email collaborator.
type LeaveNotification struct {
	Event        NotificationEvent `json:"event"`
	RequestID    string            `json:"request_id"`
	Type         LeaveType         `json:"type"`
	Status       LeaveStatus       `json:"status"`
	StudentName  string            `json:"student_name"`
	StudentID    string            `json:"student_id"`
	StudentEmail string            `json:"student_email,omitempty"`
	Reason       string            `json:"reason"`
	StartDate    Date              `json:"start_date"`
	EndDate      Date              `json:"end_date"`
	Periods      *int              `json:"periods,omitempty"`
	StaffEmail   string            `json:"staff_email,omitempty"`
	AdminEmail   string            `json:"admin_email,omitempty"`
}

// Recipients returns the non-empty addresses the notification targets.
func (n LeaveNotification) Recipients() []string {
	out := make([]string, 0, 3)
	for _, addr := range []string{n.StaffEmail, n.AdminEmail} {
		if addr != "" {
			out = append(out, addr)
		}
	}
	if n.Event == NotificationLeaveDecided && n.StudentEmail != "" {
		out = append(out, n.StudentEmail)
	}
	return out
}

// NotificationResult is the delivery outcome reported by a notifier.
type NotificationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
