package services

import (
	"context"
	"testing"
	"time"

	"nutriplan/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analyticsFixture struct {
	plans     *PlanService
	checkIns  *CheckInService
	records   *DailyRecordService
	analytics *AnalyticsService
}

func newAnalyticsFixture(t *testing.T, now time.Time) *analyticsFixture {
	t.Helper()
	db := newTestDB(t)
	f := &analyticsFixture{
		plans:    NewPlanService(db, 14, nopLog),
		checkIns: NewCheckInService(db, nopLog),
		records:  NewDailyRecordService(db, 10, engine.LivenessYesterday, nopLog, nil),
	}
	f.analytics = NewAnalyticsService(db, f.checkIns, f.records, 14, 50)
	f.analytics.now = fixedClock(now)
	f.records.now = fixedClock(now)
	return f
}

func TestAnalyticsService_PlanAdherence(t *testing.T) {
	ctx := context.Background()
	f := newAnalyticsFixture(t, time.Date(2025, 3, 12, 20, 0, 0, 0, time.UTC))

	plan, err := f.plans.CreatePlan(ctx, samplePlan(1, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), 2))
	require.NoError(t, err)
	at := func(day int) time.Time { return time.Date(2025, 3, day, 12, 0, 0, 0, time.UTC) }

	for _, sub := range []CheckInSubmission{
		{ItemID: plan.Items[0].ID, DayOffset: 0, VerificationScore: 90, At: at(10)},
		{ItemID: plan.Items[0].ID, DayOffset: 1, VerificationScore: 95, At: at(11)},
		{ItemID: plan.Items[1].ID, DayOffset: 1, VerificationScore: 10, At: at(11)},
		{ItemID: plan.Items[3].ID, DayOffset: 1, VerificationScore: 70, At: at(12)},
	} {
		sub.PlanID, sub.UserID = plan.ID, 1
		_, err := f.checkIns.Record(ctx, sub)
		require.NoError(t, err)
	}

	rep, err := f.analytics.PlanAdherence(ctx, 1, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.TotalItems)
	assert.Equal(t, 2, rep.CompletedItems)
	assert.Equal(t, 50.0, rep.CompletionPercentage)
	assert.Equal(t, 4, rep.CheckIns)
	assert.Equal(t, 3, rep.CheckInStreak)
	assert.Equal(t, engine.PhaseCompleted, rep.Phase)
	require.NotEmpty(t, rep.PopularItems)
	assert.Equal(t, []engine.ItemCount{{Name: "Chicken salad", Count: 2}, {Name: "Oat porridge", Count: 2}}, rep.PopularItems)
}

func TestAnalyticsService_PlanAdherenceEmpty(t *testing.T) {
	ctx := context.Background()
	f := newAnalyticsFixture(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))
	plan, err := f.plans.CreatePlan(ctx, PlanDescriptor{
		UserID: 1, StartInstant: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), CycleLengthDays: 3,
	})
	require.NoError(t, err)

	rep, err := f.analytics.PlanAdherence(ctx, 1, plan.ID)
	require.NoError(t, err)
	assert.Zero(t, rep.CompletionPercentage)
	assert.Zero(t, rep.CheckInStreak)
	assert.Empty(t, rep.PopularItems)

	_, err = f.analytics.PlanAdherence(ctx, 1, "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestAnalyticsService_Weekly(t *testing.T) {
	ctx := context.Background()
	f := newAnalyticsFixture(t, time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC))

	plan, err := f.plans.CreatePlan(ctx, samplePlan(1, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), 7))
	require.NoError(t, err)
	for day := 10; day <= 13; day++ {
		_, err := f.checkIns.Record(ctx, CheckInSubmission{
			PlanID: plan.ID, UserID: 1, ItemID: plan.Items[0].ID, DayOffset: day - 10, VerificationScore: 80,
			At: time.Date(2025, 3, day, 7, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	for _, d := range []string{"2025-03-12", "2025-03-13"} {
		_, err := f.records.Upsert(ctx, DailyRecordUpsert{UserID: 1, Date: d, GoalSatisfied: boolPtr(true)})
		require.NoError(t, err)
	}

	rep, err := f.analytics.Weekly(ctx, 1, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", rep.WeekStart)
	assert.Equal(t, 4, rep.CheckIns)
	assert.Equal(t, 1280.0, rep.Totals.Calories)
	assert.Equal(t, 182.86, rep.Averages.Calories)
	assert.Equal(t, 4, rep.CheckInStreak)
	assert.Equal(t, engine.GoalStreak{Current: 2, Best: 2}, rep.GoalStreak)
	require.Len(t, rep.Days, 7)
	assert.Equal(t, 1, rep.Days[3].CheckIns)
	assert.Equal(t, 0, rep.Days[4].CheckIns)
}
