package memory

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/internal/repository"
)

func sampleRequest(kind models.LeaveType) *models.LeaveRequest {
	start := models.NewDate(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC))
	req := &models.LeaveRequest{
		Type:          kind,
		Reason:        "Medical",
		Details:       "Clinic visit",
		StartDate:     start,
		EndDate:       start,
		Status:        models.LeaveStatusPending,
		StudentUserID: "student-1",
		StudentName:   "Demo Student",
		StudentID:     "STU001",
	}
	if kind == models.LeaveTypeOD {
		periods := 3
		req.Periods = &periods
	}
	return req
}

func TestLeaveRequestStoreRoundTrip(t *testing.T) {
	store := NewLeaveRequestStore()
	ctx := context.Background()
	for _, kind := range []models.LeaveType{models.LeaveTypeLeave, models.LeaveTypeOD} {
		req := sampleRequest(kind)
		require.NoError(t, store.Add(ctx, req))
		got, err := store.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, *req, *got)
	}
}

func TestLeaveRequestStoreReturnsCopies(t *testing.T) {
	store := NewLeaveRequestStore()
	ctx := context.Background()
	req := sampleRequest(models.LeaveTypeOD)
	require.NoError(t, store.Add(ctx, req))

	*req.Periods = 5
	all, _, err := store.GetAll(ctx, models.LeaveRequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 3, *all[0].Periods)

	*all[0].Periods = 1
	got, err := store.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *got.Periods)
}

func TestLeaveRequestStoreUpdateStatusCompareAndSet(t *testing.T) {
	store := NewLeaveRequestStore()
	ctx := context.Background()
	req := sampleRequest(models.LeaveTypeOD)
	require.NoError(t, store.Add(ctx, req))

	updated, err := store.UpdateStatus(ctx, models.StatusChange{ID: req.ID, From: models.LeaveStatusPending, To: models.LeaveStatusAcknowledged, ActorID: "staff-1"})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusAcknowledged, updated.Status)
	require.NotNil(t, updated.AcknowledgedBy)
	assert.Equal(t, "staff-1", *updated.AcknowledgedBy)

	_, err = store.UpdateStatus(ctx, models.StatusChange{ID: req.ID, From: models.LeaveStatusPending, To: models.LeaveStatusApproved, ActorID: "admin-1"})
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	_, err = store.UpdateStatus(ctx, models.StatusChange{ID: "missing", From: models.LeaveStatusPending, To: models.LeaveStatusApproved})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLeaveRequestStoreConcurrentDecisionsHaveOneWinner(t *testing.T) {
	store := NewLeaveRequestStore()
	ctx := context.Background()
	req := sampleRequest(models.LeaveTypeLeave)
	require.NoError(t, store.Add(ctx, req))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for _, to := range []models.LeaveStatus{models.LeaveStatusApproved, models.LeaveStatusRejected, models.LeaveStatusApproved, models.LeaveStatusRejected} {
		wg.Add(1)
		go func(to models.LeaveStatus) {
			defer wg.Done()
			if _, err := store.UpdateStatus(ctx, models.StatusChange{ID: req.ID, From: models.LeaveStatusPending, To: to, ActorID: "x"}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(to)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestLeaveRequestStoreFiltersAndCounts(t *testing.T) {
	store := NewLeaveRequestStore()
	ctx := context.Background()
	own := sampleRequest(models.LeaveTypeLeave)
	other := sampleRequest(models.LeaveTypeOD)
	other.StudentUserID = "student-2"
	require.NoError(t, store.Add(ctx, own))
	require.NoError(t, store.Add(ctx, other))

	items, total, err := store.GetAll(ctx, models.LeaveRequestFilter{StudentUserID: "student-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, own.ID, items[0].ID)

	kind := models.LeaveTypeOD
	items, _, err = store.GetAll(ctx, models.LeaveRequestFilter{Type: &kind})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, other.ID, items[0].ID)

	counts, err := store.CountByStatus(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.LeaveStatusPending])
	assert.Equal(t, 0, counts[models.LeaveStatusApproved])
}
