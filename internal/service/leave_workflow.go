package service

import (
	"fmt"

	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
)

type transitionKey struct {
	actor  models.UserRole
	kind   models.LeaveType
	from   models.LeaveStatus
	action models.LeaveAction
}

type leaveEdge struct {
	transitionKey
	to models.LeaveStatus
}

// leaveEdges is the complete set of legal workflow edges.
var leaveEdges = []leaveEdge{
	{transitionKey{models.RoleStaff, models.LeaveTypeLeave, models.LeaveStatusPending, models.LeaveActionApprove}, models.LeaveStatusApproved},
	{transitionKey{models.RoleStaff, models.LeaveTypeLeave, models.LeaveStatusPending, models.LeaveActionReject}, models.LeaveStatusRejected},
	{transitionKey{models.RoleStaff, models.LeaveTypeOD, models.LeaveStatusPending, models.LeaveActionAcknowledge}, models.LeaveStatusAcknowledged},
	{transitionKey{models.RoleAdmin, models.LeaveTypeLeave, models.LeaveStatusPending, models.LeaveActionApprove}, models.LeaveStatusApproved},
	{transitionKey{models.RoleAdmin, models.LeaveTypeLeave, models.LeaveStatusPending, models.LeaveActionReject}, models.LeaveStatusRejected},
	{transitionKey{models.RoleAdmin, models.LeaveTypeOD, models.LeaveStatusAcknowledged, models.LeaveActionApprove}, models.LeaveStatusApproved},
	{transitionKey{models.RoleAdmin, models.LeaveTypeOD, models.LeaveStatusAcknowledged, models.LeaveActionReject}, models.LeaveStatusRejected},
	{transitionKey{models.RoleStudent, models.LeaveTypeLeave, models.LeaveStatusApproved, models.LeaveActionDownloadLetter}, models.LeaveStatusApproved},
	{transitionKey{models.RoleStudent, models.LeaveTypeOD, models.LeaveStatusApproved, models.LeaveActionDownloadLetter}, models.LeaveStatusApproved},
}

var leaveTransitions = func() map[transitionKey]models.LeaveStatus {
	out := make(map[transitionKey]models.LeaveStatus, len(leaveEdges))
	for _, edge := range leaveEdges {
		out[edge.transitionKey] = edge.to
	}
	return out
}()

// roleActions lists the actions each role may ever perform.
var roleActions = map[models.UserRole]map[models.LeaveAction]bool{
	models.RoleStudent: {models.LeaveActionDownloadLetter: true},
	models.RoleStaff:   {models.LeaveActionAcknowledge: true, models.LeaveActionApprove: true, models.LeaveActionReject: true},
	models.RoleAdmin:   {models.LeaveActionApprove: true, models.LeaveActionReject: true},
}

// NextStatus returns the status reached when actor performs action on a request of the given type and status.
// Actions a role can never perform yield FORBIDDEN; every other edge outside the table yields INVALID_TRANSITION.
func NextStatus(actor models.UserRole, kind models.LeaveType, current models.LeaveStatus, action models.LeaveAction) (models.LeaveStatus, error) {
	if !roleActions[actor][action] {
		return current, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("%s cannot %s requests", roleLabel(actor), actionLabel(action)))
	}
	if next, ok := leaveTransitions[transitionKey{actor, kind, current, action}]; ok {
		return next, nil
	}
	return current, appErrors.Clone(appErrors.ErrInvalidTransition, invalidTransitionMessage(actor, kind, current, action))
}

// AllowedActions lists what actor may do next on a request, in a stable order.
func AllowedActions(actor models.UserRole, kind models.LeaveType, current models.LeaveStatus) []models.LeaveAction {
	out := make([]models.LeaveAction, 0, 2)
	for _, action := range models.LeaveActions {
		if _, ok := leaveTransitions[transitionKey{actor, kind, current, action}]; ok {
			out = append(out, action)
		}
	}
	return out
}

func invalidTransitionMessage(actor models.UserRole, kind models.LeaveType, current models.LeaveStatus, action models.LeaveAction) string {
	switch {
	case current.Terminal() && action != models.LeaveActionDownloadLetter:
		return fmt.Sprintf("request is already %s", current)
	case action == models.LeaveActionDownloadLetter:
		return "letter is available once the request is approved"
	case kind == models.LeaveTypeOD && actor == models.RoleStaff:
		return "on-duty requests must be acknowledged by staff and decided by admin"
	case kind == models.LeaveTypeOD && actor == models.RoleAdmin && current == models.LeaveStatusPending:
		return "on-duty request must be acknowledged by staff first"
	case kind == models.LeaveTypeLeave && action == models.LeaveActionAcknowledge:
		return "leave requests are approved or rejected directly"
	}
	return fmt.Sprintf("cannot %s a %s request that is %s", actionLabel(action), kind, current)
}

func roleLabel(role models.UserRole) string {
	if role == "" {
		return "anonymous users"
	}
	return string(role)
}

func actionLabel(action models.LeaveAction) string {
	if action == models.LeaveActionDownloadLetter {
		return "download letters for"
	}
	return string(action)
}
