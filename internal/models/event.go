package models

import "time"

// EventType names the mutation an event describes.
type EventType string

const (
	EventCreated       EventType = "created"
	EventUpdated       EventType = "updated"
	EventDeleted       EventType = "deleted"
	EventStatusChanged EventType = "status_changed"
)

// Entity names published on the event bus.
const (
	EntityAnnouncement = "announcement"
	EntityLeaveRequest = "leave_request"
)

// EventDataOwner is the data key holding the user id that owns the changed record.
const EventDataOwner = "owner_id"

// Event notifies subscribers that a store changed.
type Event struct {
	ID       string            `json:"id"`
	Type     EventType         `json:"type"`
	Entity   string            `json:"entity"`
	EntityID string            `json:"entity_id"`
	ActorID  string            `json:"actor_id,omitempty"`
	At       time.Time         `json:"at"`
	Data     map[string]string `json:"data,omitempty"`
}

// VisibleTo reports whether a subscriber may receive the event. Students only
// see changes to their own leave requests.
func (e Event) VisibleTo(userID string, role UserRole) bool {
	if role != RoleStudent || e.Entity != EntityLeaveRequest {
		return true
	}
	return userID != "" && e.Data[EventDataOwner] == userID
}
