package engine

import (
	"fmt"
	"math"
	"time"
)

// ResourceType is a billable usage dimension.
type ResourceType string

const (
	ResourceScan       ResourceType = "scan"
	ResourceChatTokens ResourceType = "chat_tokens"
)

const (
	// UnlimitedQuota as a tier limit disables the check.
	UnlimitedQuota int64 = -1

	// TokensPerMessageEstimate converts a token budget into an approximate
	// message count for display.
	TokensPerMessageEstimate = 500
)

// IsTokenBudget reports whether the resource is consumed in variable amounts.
func (r ResourceType) IsTokenBudget() bool { return r == ResourceChatTokens }

// QuotaCounterState is the persisted part of a quota counter.
type QuotaCounterState struct {
	Count       int64
	Limit       int64
	PeriodStart time.Time
}

func (s QuotaCounterState) Equal(o QuotaCounterState) bool {
	return s.Count == o.Count && s.Limit == o.Limit && s.PeriodStart.Equal(o.PeriodStart)
}

// QuotaRequest asks to consume Amount units of Resource against Limit.
// An Amount of zero only reads the status.
type QuotaRequest struct {
	UserID   uint         `json:"user_id"`
	Resource ResourceType `json:"resource_type"`
	Amount   int64        `json:"amount"`
	Limit    int64        `json:"tier_limit"`
}

func (r QuotaRequest) Validate() error {
	switch {
	case r.UserID == 0:
		return ValidationError{Field: "user_id", Reason: "required"}
	case r.Resource == "":
		return ValidationError{Field: "resource_type", Reason: "required"}
	case r.Amount < 0:
		return ValidationError{Field: "amount", Reason: "must not be negative"}
	case r.Limit < UnlimitedQuota:
		return ValidationError{Field: "tier_limit", Reason: "must be -1 (unlimited) or non-negative"}
	}
	return nil
}

// QuotaStatus is the answer to a consumption request.
type QuotaStatus struct {
	Allowed         bool         `json:"allowed"`
	Resource        ResourceType `json:"resource_type"`
	Current         int64        `json:"current"`
	Limit           int64        `json:"limit"`
	Remaining       int64        `json:"remaining"`
	ResetAt         time.Time    `json:"reset_at"`
	MessageEstimate *int64       `json:"message_estimate,omitempty"`
	Message         string       `json:"message,omitempty"`
	PeriodReset     bool         `json:"-"`
}

// ApplyQuota is the pure check-and-consume step. It rolls the period over
// when now is at least one calendar month past the period start, then
// either consumes the full amount or rejects it leaving the count as is.
func ApplyQuota(state QuotaCounterState, exists bool, req QuotaRequest, now time.Time) (QuotaCounterState, QuotaStatus) {
	next := state
	if !exists {
		next = QuotaCounterState{PeriodStart: now}
	}
	next.Limit = req.Limit

	reset := false
	if exists && !now.Before(AddMonthsClamped(next.PeriodStart, 1)) {
		next.Count = 0
		next.PeriodStart = now
		reset = true
	}

	st := QuotaStatus{
		Resource:    req.Resource,
		Limit:       req.Limit,
		ResetAt:     AddMonthsClamped(next.PeriodStart, 1),
		PeriodReset: reset,
	}

	if req.Limit == UnlimitedQuota {
		if req.Amount > math.MaxInt64-next.Count {
			next.Count = math.MaxInt64
		} else {
			next.Count += req.Amount
		}
		st.Allowed = true
		st.Current = next.Count
		st.Remaining = UnlimitedQuota
		return next, st
	}

	if req.Amount == 0 {
		st.Allowed = next.Count < req.Limit
	} else if req.Amount <= req.Limit-next.Count {
		next.Count += req.Amount
		st.Allowed = true
	}

	st.Current = next.Count
	if st.Allowed || req.Amount == 0 {
		st.Remaining = max(req.Limit-next.Count, 0)
	}
	if !st.Allowed {
		st.Message = fmt.Sprintf("%s quota exceeded: %d of %d used, resets %s",
			req.Resource, next.Count, req.Limit, st.ResetAt.Format(DateLayout))
	}
	if req.Resource.IsTokenBudget() {
		est := st.Remaining / TokensPerMessageEstimate
		st.MessageEstimate = &est
	}
	return next, st
}

// RefundQuota gives back amount units charged in the period ending at
// resetAt. A counter that has rolled over since is left alone, and the
// count never drops below zero.
func RefundQuota(state QuotaCounterState, amount int64, resetAt time.Time) (QuotaCounterState, bool) {
	if amount <= 0 || state.Count == 0 {
		return state, false
	}
	// stores may truncate timestamps; periods are a month apart
	end := AddMonthsClamped(state.PeriodStart.In(resetAt.Location()), 1)
	if d := end.Sub(resetAt); d < -time.Second || d > time.Second {
		return state, false
	}
	state.Count -= min(amount, state.Count)
	return state, true
}
