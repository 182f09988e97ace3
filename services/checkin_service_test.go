package services

import (
	"context"
	"testing"
	"time"

	"nutriplan/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInService_RecordSnapshotsItem(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	plans := NewPlanService(db, 14, nopLog)
	svc := NewCheckInService(db, nopLog)
	svc.now = fixedClock(time.Date(2025, 3, 11, 8, 30, 0, 0, time.UTC))

	plan, err := plans.CreatePlan(ctx, samplePlan(2, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), 3))
	require.NoError(t, err)
	item := plan.Items[3]

	note := "half portion"
	c, err := svc.Record(ctx, CheckInSubmission{
		PlanID: plan.ID, UserID: 2, ItemID: item.ID, DayOffset: 1, VerificationScore: 88.5, Notes: &note,
	})
	require.NoError(t, err)
	assert.Equal(t, item.Name, c.ItemName)
	assert.Equal(t, item.Calories, c.Calories)
	assert.Equal(t, time.Date(2025, 3, 11, 8, 30, 0, 0, time.UTC), c.At)

	rows, err := svc.ListForPlan(ctx, 2, plan.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Notes)
	assert.Equal(t, note, *rows[0].Notes)

	window, err := svc.ListForUser(ctx, 2, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, window, 1)

	empty, err := svc.ListForUser(ctx, 2, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCheckInService_Rejects(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	plans := NewPlanService(db, 14, nopLog)
	svc := NewCheckInService(db, nopLog)

	plan, err := plans.CreatePlan(ctx, samplePlan(2, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), 3))
	require.NoError(t, err)
	itemID := plan.Items[0].ID

	_, err = svc.Record(ctx, CheckInSubmission{PlanID: plan.ID, UserID: 2, ItemID: itemID, VerificationScore: 101})
	assert.True(t, engine.IsValidation(err))

	_, err = svc.Record(ctx, CheckInSubmission{PlanID: plan.ID, UserID: 2, ItemID: itemID, VerificationScore: -1})
	assert.True(t, engine.IsValidation(err))

	_, err = svc.Record(ctx, CheckInSubmission{PlanID: plan.ID, UserID: 2, ItemID: itemID, DayOffset: 3, VerificationScore: 50})
	assert.True(t, engine.IsValidation(err))

	_, err = svc.Record(ctx, CheckInSubmission{PlanID: plan.ID, UserID: 2, ItemID: "nope", VerificationScore: 50})
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = svc.Record(ctx, CheckInSubmission{PlanID: plan.ID, UserID: 99, ItemID: itemID, VerificationScore: 50})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}
