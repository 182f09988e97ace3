package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCycle_CutoffRollsStartToNextDay(t *testing.T) {
	start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		now      time.Time
		started  bool
		index    int
		exceeded bool
	}{
		{"same evening", time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), false, 0, false},
		{"next midnight", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), true, 0, false},
		{"next noon", time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC), true, 0, false},
		{"last day", time.Date(2025, 3, 17, 23, 59, 0, 0, time.UTC), true, 6, false},
		{"D+8 midnight", time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC), true, 6, true},
		{"long after", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), true, 6, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, err := ComputeCycle(start, 7, 14, tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.started, st.Started)
			assert.Equal(t, tc.index, st.DayIndex)
			assert.Equal(t, tc.exceeded, st.Exceeded)
		})
	}
}

func TestComputeCycle_EarlyStartUsesOwnDay(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	st, err := ComputeCycle(start, 3, DefaultCutoffHour, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, st.Started)
	assert.Equal(t, 0, st.DayIndex)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), st.EffectiveStart)
}

func TestComputeCycle_CutoffDisabled(t *testing.T) {
	start := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	st, err := ComputeCycle(start, 2, 24, start)
	require.NoError(t, err)
	assert.True(t, st.Started)
}

func TestComputeCycle_UsesStartLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, loc)
	// 2025-03-10 20:00 UTC is already 2025-03-11 05:00 in loc.
	st, err := ComputeCycle(start, 7, 14, time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, st.DayIndex)
}

func TestComputeCycle_ExceededIsMonotonic(t *testing.T) {
	start := time.Date(2025, 1, 31, 16, 0, 0, 0, time.UTC)
	seen := false
	for h := 0; h < 24*20; h++ {
		now := start.Add(time.Duration(h) * time.Hour)
		st, err := ComputeCycle(start, 5, 14, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, st.DayIndex, 0)
		if seen {
			require.True(t, st.Exceeded, "exceeded flipped back at %s", now)
		}
		seen = st.Exceeded
	}
	assert.True(t, seen)
}

func TestComputeCycle_Validation(t *testing.T) {
	now := time.Now()
	_, err := ComputeCycle(time.Time{}, 7, 14, now)
	assert.True(t, IsValidation(err))

	_, err = ComputeCycle(now, 0, 14, now)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cycle_length_days", ve.Field)

	_, err = ComputeCycle(now, 7, 25, now)
	assert.True(t, IsValidation(err))
}

func TestEvaluateCompletion(t *testing.T) {
	assert.Equal(t, CompletionDecision{Phase: PhaseNotStarted}, EvaluateCompletion(false, CycleState{}))
	assert.Equal(t, CompletionDecision{Phase: PhaseInProgress}, EvaluateCompletion(false, CycleState{Started: true}))
	assert.Equal(t, CompletionDecision{Phase: PhaseCompleted, Fire: true},
		EvaluateCompletion(false, CycleState{Started: true, Exceeded: true}))

	// already flagged: no second transition, even if time is rewound
	assert.Equal(t, CompletionDecision{Phase: PhaseCompleted},
		EvaluateCompletion(true, CycleState{Started: true, Exceeded: true}))
	assert.Equal(t, CompletionDecision{Phase: PhaseCompleted}, EvaluateCompletion(true, CycleState{Started: true}))
}

func TestSummarizeCompletion(t *testing.T) {
	checkIns := []CheckInFact{
		{ItemID: "a", ItemName: "Oats", Score: 90, Nutrients: Nutrients{Calories: 300, Protein: 10}},
		{ItemID: "a", ItemName: "Oats", Score: 80, Nutrients: Nutrients{Calories: 300, Protein: 10}},
		{ItemID: "b", ItemName: "Salad", Score: 20, Nutrients: Nutrients{Calories: 150}},
		{ItemID: "c", ItemName: "Soup", Score: 50, Nutrients: Nutrients{Calories: 100, Sodium: 700}},
	}
	s := SummarizeCompletion(6, checkIns, 50, 4)
	assert.Equal(t, 6, s.TotalItems)
	assert.Equal(t, 2, s.CompletedItems)
	assert.Equal(t, 700.0, s.Totals.Calories)
	assert.Equal(t, 175.0, s.AveragePerDay.Calories)
	assert.Equal(t, 175.0, s.AveragePerDay.Sodium)
}
