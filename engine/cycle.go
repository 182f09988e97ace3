package engine

import "time"

// DefaultCutoffHour is the hour-of-day from which a plan's first day rolls
// over to the next calendar day.
const DefaultCutoffHour = 14

// CycleState is the position of a plan within its cycle at a given instant.
type CycleState struct {
	DayIndex       int       `json:"day_index"`
	Exceeded       bool      `json:"exceeded"`
	Started        bool      `json:"started"`
	ElapsedDays    int       `json:"elapsed_days"`
	CycleLength    int       `json:"cycle_length_days"`
	EffectiveStart time.Time `json:"effective_start"`
}

// EffectiveStart returns midnight of the day the plan actually begins:
// start's own day, or the following day when start is at or past cutoffHour.
func EffectiveStart(start time.Time, cutoffHour int) time.Time {
	d := DayStart(start)
	if start.Hour() >= cutoffHour {
		return d.AddDate(0, 0, 1)
	}
	return d
}

// ComputeCycle places now within the plan's cycle. The index is linear and
// never wraps: once elapsed days reach the cycle length the cycle is
// exceeded and DayIndex stays on the last day. now is evaluated in start's
// location. A cutoffHour of 24 disables the late-start rollover.
func ComputeCycle(start time.Time, cycleLengthDays, cutoffHour int, now time.Time) (CycleState, error) {
	if start.IsZero() {
		return CycleState{}, ValidationError{Field: "start_instant", Reason: "missing"}
	}
	if cycleLengthDays < 1 {
		return CycleState{}, ValidationError{Field: "cycle_length_days", Reason: "must be at least 1"}
	}
	if cutoffHour < 0 || cutoffHour > 24 {
		return CycleState{}, ValidationError{Field: "cutoff_hour", Reason: "must be between 0 and 24"}
	}

	eff := EffectiveStart(start, cutoffHour)
	st := CycleState{CycleLength: cycleLengthDays, EffectiveStart: eff}

	today := DayStart(now.In(start.Location()))
	if today.Before(eff) {
		return st, nil
	}

	elapsed := DaysBetween(eff, today)
	st.Started = true
	st.ElapsedDays = elapsed
	if elapsed >= cycleLengthDays {
		st.Exceeded = true
		st.DayIndex = cycleLengthDays - 1
		return st, nil
	}
	st.DayIndex = elapsed
	return st, nil
}
