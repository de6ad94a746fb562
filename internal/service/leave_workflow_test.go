package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisync-api/internal/models"
	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
)

func TestNextStatusLegalEdges(t *testing.T) {
	cases := []struct {
		actor  models.UserRole
		kind   models.LeaveType
		from   models.LeaveStatus
		action models.LeaveAction
		want   models.LeaveStatus
	}{
		{models.RoleStaff, models.LeaveTypeLeave, models.LeaveStatusPending, models.LeaveActionApprove, models.LeaveStatusApproved},
		{models.RoleStaff, models.LeaveTypeLeave, models.LeaveStatusPending, models.LeaveActionReject, models.LeaveStatusRejected},
		{models.RoleStaff, models.LeaveTypeOD, models.LeaveStatusPending, models.LeaveActionAcknowledge, models.LeaveStatusAcknowledged},
		{models.RoleAdmin, models.LeaveTypeLeave, models.LeaveStatusPending, models.LeaveActionApprove, models.LeaveStatusApproved},
		{models.RoleAdmin, models.LeaveTypeLeave, models.LeaveStatusPending, models.LeaveActionReject, models.LeaveStatusRejected},
		{models.RoleAdmin, models.LeaveTypeOD, models.LeaveStatusAcknowledged, models.LeaveActionApprove, models.LeaveStatusApproved},
		{models.RoleAdmin, models.LeaveTypeOD, models.LeaveStatusAcknowledged, models.LeaveActionReject, models.LeaveStatusRejected},
		{models.RoleStudent, models.LeaveTypeLeave, models.LeaveStatusApproved, models.LeaveActionDownloadLetter, models.LeaveStatusApproved},
		{models.RoleStudent, models.LeaveTypeOD, models.LeaveStatusApproved, models.LeaveActionDownloadLetter, models.LeaveStatusApproved},
	}
	for _, tc := range cases {
		t.Run(string(tc.actor)+"/"+string(tc.kind)+"/"+string(tc.from)+"/"+string(tc.action), func(t *testing.T) {
			got, err := NextStatus(tc.actor, tc.kind, tc.from, tc.action)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// Every combination outside the table must be refused and leave the status untouched.
func TestNextStatusClosure(t *testing.T) {
	legal := map[transitionKey]bool{}
	for _, edge := range leaveEdges {
		legal[edge.transitionKey] = true
	}
	roles := append([]models.UserRole{""}, models.Roles...)
	kinds := []models.LeaveType{models.LeaveTypeLeave, models.LeaveTypeOD}

	refused := 0
	for _, actor := range roles {
		for _, kind := range kinds {
			for _, from := range models.LeaveStatuses {
				for _, action := range models.LeaveActions {
					if legal[transitionKey{actor, kind, from, action}] {
						continue
					}
					got, err := NextStatus(actor, kind, from, action)
					require.Error(t, err)
					assert.Equal(t, from, got)
					appErr := appErrors.FromError(err)
					assert.Contains(t, []string{appErrors.ErrForbidden.Code, appErrors.ErrInvalidTransition.Code}, appErr.Code)
					refused++
				}
			}
		}
	}
	assert.Equal(t, len(roles)*len(kinds)*len(models.LeaveStatuses)*len(models.LeaveActions)-len(leaveEdges), refused)
}

func TestNextStatusTerminalStatesAreFinal(t *testing.T) {
	for _, terminal := range []models.LeaveStatus{models.LeaveStatusApproved, models.LeaveStatusRejected} {
		for _, actor := range []models.UserRole{models.RoleStaff, models.RoleAdmin} {
			for _, kind := range []models.LeaveType{models.LeaveTypeLeave, models.LeaveTypeOD} {
				for _, action := range []models.LeaveAction{models.LeaveActionAcknowledge, models.LeaveActionApprove, models.LeaveActionReject} {
					_, err := NextStatus(actor, kind, terminal, action)
					assert.Error(t, err)
				}
			}
		}
	}
}

func TestNextStatusErrorKinds(t *testing.T) {
	_, err := NextStatus(models.RoleStudent, models.LeaveTypeLeave, models.LeaveStatusPending, models.LeaveActionApprove)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = NextStatus(models.RoleAdmin, models.LeaveTypeOD, models.LeaveStatusPending, models.LeaveActionAcknowledge)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = NextStatus(models.RoleStaff, models.LeaveTypeOD, models.LeaveStatusPending, models.LeaveActionApprove)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	_, err = NextStatus(models.RoleAdmin, models.LeaveTypeOD, models.LeaveStatusPending, models.LeaveActionApprove)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "acknowledged by staff first")

	_, err = NextStatus(models.RoleStudent, models.LeaveTypeOD, models.LeaveStatusAcknowledged, models.LeaveActionDownloadLetter)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestAllowedActions(t *testing.T) {
	assert.Equal(t,
		[]models.LeaveAction{models.LeaveActionApprove, models.LeaveActionReject},
		AllowedActions(models.RoleStaff, models.LeaveTypeLeave, models.LeaveStatusPending))
	assert.Equal(t,
		[]models.LeaveAction{models.LeaveActionAcknowledge},
		AllowedActions(models.RoleStaff, models.LeaveTypeOD, models.LeaveStatusPending))
	assert.Empty(t, AllowedActions(models.RoleAdmin, models.LeaveTypeOD, models.LeaveStatusPending))
	assert.Equal(t,
		[]models.LeaveAction{models.LeaveActionDownloadLetter},
		AllowedActions(models.RoleStudent, models.LeaveTypeOD, models.LeaveStatusApproved))
}
