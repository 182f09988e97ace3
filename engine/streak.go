package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DayOutcome is one user's goal result for one calendar day.
type DayOutcome struct {
	Date          time.Time
	GoalSatisfied bool
}

// GoalStreak is the goal-based streak: consecutive days on which the daily
// goal was satisfied. It is unrelated to CheckInStreak.
type GoalStreak struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// StreakLiveness decides how old the most recent record may be before the
// current streak is considered stale.
type StreakLiveness string

const (
	// LivenessToday requires a record dated today.
	LivenessToday StreakLiveness = "today"
	// LivenessYesterday also accepts yesterday, since today may still be in progress.
	LivenessYesterday StreakLiveness = "yesterday"
)

func (l StreakLiveness) maxAgeDays() int {
	if l == LivenessToday {
		return 0
	}
	return 1
}

func ParseStreakLiveness(s string) (StreakLiveness, error) {
	switch l := StreakLiveness(strings.ToLower(strings.TrimSpace(s))); l {
	case LivenessToday, LivenessYesterday:
		return l, nil
	case "":
		return LivenessYesterday, nil
	default:
		return "", fmt.Errorf("invalid streak liveness %q", s)
	}
}

// NormalizeOutcomes sorts records by calendar date and keeps only the last
// record supplied for each date.
func NormalizeOutcomes(records []DayOutcome) []DayOutcome {
	byDate := make(map[time.Time]int, len(records))
	out := make([]DayOutcome, 0, len(records))
	for _, r := range records {
		d := CivilDate(r.Date)
		if i, ok := byDate[d]; ok {
			out[i].GoalSatisfied = r.GoalSatisfied
			continue
		}
		byDate[d] = len(out)
		out = append(out, DayOutcome{Date: d, GoalSatisfied: r.GoalSatisfied})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ComputeGoalStreak returns the current and best goal streaks.
//
// Best is a forward scan where a false day or a date gap resets the run.
// Current is a backward scan from the most recent record that stops at the
// first false day or gap; it is zero when that record is older than the
// liveness policy allows relative to today.
func ComputeGoalStreak(records []DayOutcome, today time.Time, liveness StreakLiveness) GoalStreak {
	days := NormalizeOutcomes(records)
	if len(days) == 0 {
		return GoalStreak{}
	}

	var out GoalStreak
	run := 0
	for i, d := range days {
		if i > 0 && DaysBetween(days[i-1].Date, d.Date) != 1 {
			run = 0
		}
		if d.GoalSatisfied {
			run++
		} else {
			run = 0
		}
		if run > out.Best {
			out.Best = run
		}
	}

	last := len(days) - 1
	if age := DaysBetween(days[last].Date, today); age > liveness.maxAgeDays() {
		return out
	}
	for i := last; i >= 0; i-- {
		if !days[i].GoalSatisfied {
			break
		}
		if i < last && DaysBetween(days[i].Date, days[i+1].Date) != 1 {
			break
		}
		out.Current++
	}
	return out
}
