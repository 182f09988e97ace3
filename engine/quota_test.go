package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyQuota_SequentialUntilLimit(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	req := QuotaRequest{UserID: 1, Resource: ResourceScan, Amount: 1, Limit: 5}

	var (
		state  QuotaCounterState
		exists bool
	)
	for want := int64(4); want >= 0; want-- {
		next, st := ApplyQuota(state, exists, req, now)
		require.True(t, st.Allowed)
		assert.Equal(t, want, st.Remaining)
		state, exists = next, true
	}

	next, st := ApplyQuota(state, exists, req, now)
	assert.False(t, st.Allowed)
	assert.Equal(t, int64(0), st.Remaining)
	assert.Equal(t, int64(5), st.Current)
	assert.NotEmpty(t, st.Message)
	assert.True(t, next.Equal(state), "rejected request must not change the counter")
	assert.Equal(t, time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC), st.ResetAt)
}

func TestApplyQuota_RejectsInFull(t *testing.T) {
	now := time.Now()
	state := QuotaCounterState{Count: 900, Limit: 1000, PeriodStart: now}
	next, st := ApplyQuota(state, true, QuotaRequest{UserID: 1, Resource: ResourceChatTokens, Amount: 150, Limit: 1000}, now)
	assert.False(t, st.Allowed)
	assert.Equal(t, int64(900), next.Count)
	require.NotNil(t, st.MessageEstimate)
	assert.Equal(t, int64(0), *st.MessageEstimate)
}

func TestApplyQuota_HugeAmountCannotWrap(t *testing.T) {
	now := time.Now()
	state := QuotaCounterState{Count: 1, Limit: 5, PeriodStart: now}

	next, st := ApplyQuota(state, true, QuotaRequest{UserID: 1, Resource: ResourceScan, Amount: math.MaxInt64, Limit: 5}, now)
	assert.False(t, st.Allowed)
	assert.Equal(t, int64(1), next.Count)
	assert.Equal(t, int64(0), st.Remaining)

	next, st = ApplyQuota(next, true, QuotaRequest{UserID: 1, Resource: ResourceScan, Amount: 1000, Limit: 5}, now)
	assert.False(t, st.Allowed)
	assert.Equal(t, int64(1), next.Count)

	// unlimited counters saturate instead of wrapping
	state = QuotaCounterState{Count: 10, Limit: UnlimitedQuota, PeriodStart: now}
	next, st = ApplyQuota(state, true, QuotaRequest{UserID: 1, Resource: ResourceChatTokens, Amount: math.MaxInt64, Limit: UnlimitedQuota}, now)
	assert.True(t, st.Allowed)
	assert.Equal(t, int64(math.MaxInt64), next.Count)
}

func TestApplyQuota_MonthlyReset(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	state := QuotaCounterState{Count: 5, Limit: 5, PeriodStart: now.AddDate(0, 0, -32)}

	next, st := ApplyQuota(state, true, QuotaRequest{UserID: 1, Resource: ResourceScan, Amount: 1, Limit: 5}, now)
	require.True(t, st.Allowed)
	assert.True(t, st.PeriodReset)
	assert.Equal(t, int64(1), next.Count)
	assert.Equal(t, now, next.PeriodStart)
	assert.Equal(t, int64(4), st.Remaining)
}

func TestApplyQuota_NoResetWithinCalendarMonth(t *testing.T) {
	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	state := QuotaCounterState{Count: 3, Limit: 5, PeriodStart: start}

	// Jan 31 + 1 month clamps to Feb 28.
	before := time.Date(2025, 2, 27, 23, 0, 0, 0, time.UTC)
	next, st := ApplyQuota(state, true, QuotaRequest{UserID: 1, Resource: ResourceScan, Limit: 5}, before)
	assert.False(t, st.PeriodReset)
	assert.Equal(t, int64(3), next.Count)

	at := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	next, st = ApplyQuota(state, true, QuotaRequest{UserID: 1, Resource: ResourceScan, Limit: 5}, at)
	assert.True(t, st.PeriodReset)
	assert.Equal(t, int64(0), next.Count)
}

func TestApplyQuota_StatusReadAndUnlimited(t *testing.T) {
	now := time.Now()
	state := QuotaCounterState{Count: 2000, Limit: 5000, PeriodStart: now}

	next, st := ApplyQuota(state, true, QuotaRequest{UserID: 1, Resource: ResourceChatTokens, Amount: 0, Limit: 5000}, now)
	assert.True(t, st.Allowed)
	assert.Equal(t, int64(2000), next.Count)
	assert.Equal(t, int64(3000), st.Remaining)
	require.NotNil(t, st.MessageEstimate)
	assert.Equal(t, int64(6), *st.MessageEstimate)

	next, st = ApplyQuota(state, true, QuotaRequest{UserID: 1, Resource: ResourceScan, Amount: 10, Limit: UnlimitedQuota}, now)
	assert.True(t, st.Allowed)
	assert.Equal(t, UnlimitedQuota, st.Remaining)
	assert.Equal(t, int64(2010), next.Count)
	assert.Nil(t, st.MessageEstimate)
}

func TestQuotaRequestValidate(t *testing.T) {
	ok := QuotaRequest{UserID: 1, Resource: ResourceScan, Amount: 1, Limit: 5}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Amount = -1
	assert.True(t, IsValidation(bad.Validate()))

	bad = ok
	bad.Resource = ""
	assert.True(t, IsValidation(bad.Validate()))

	bad = ok
	bad.UserID = 0
	assert.True(t, IsValidation(bad.Validate()))

	bad = ok
	bad.Limit = -2
	assert.True(t, IsValidation(bad.Validate()))
}

func TestRefundQuota(t *testing.T) {
	start := time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)
	state := QuotaCounterState{Count: 3, Limit: 5, PeriodStart: start}
	resetAt := AddMonthsClamped(start, 1)

	next, ok := RefundQuota(state, 1, resetAt)
	require.True(t, ok)
	assert.Equal(t, int64(2), next.Count)

	next, ok = RefundQuota(QuotaCounterState{Count: 1, Limit: 5, PeriodStart: start}, 4, resetAt)
	require.True(t, ok)
	assert.Equal(t, int64(0), next.Count)

	// the charge belonged to an earlier period
	rolled := QuotaCounterState{Count: 3, Limit: 5, PeriodStart: resetAt}
	next, ok = RefundQuota(rolled, 1, resetAt)
	assert.False(t, ok)
	assert.Equal(t, int64(3), next.Count)

	_, ok = RefundQuota(QuotaCounterState{Limit: 5, PeriodStart: start}, 1, resetAt)
	assert.False(t, ok)
}
