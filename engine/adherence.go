package engine

import (
	"sort"
	"time"
)

// PopularItemsLimit is how many entries PopularItems returns by default.
const PopularItemsLimit = 5

// CheckInFact is the read-only view of a check-in used by the aggregations.
type CheckInFact struct {
	ItemID    string
	ItemName  string
	DayOffset int
	At        time.Time
	Score     float64
	Nutrients Nutrients
}

// ItemCount is one entry of the popular-items ranking.
type ItemCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CompletionPercentage returns completed/total as a percentage, or 0 when
// there is nothing to complete.
func CompletionPercentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(completed) / float64(total) * 100)
}

// VerifiedCheckIns keeps check-ins whose verification score reaches minScore.
func VerifiedCheckIns(checkIns []CheckInFact, minScore float64) []CheckInFact {
	out := make([]CheckInFact, 0, len(checkIns))
	for _, c := range checkIns {
		if c.Score >= minScore {
			out = append(out, c)
		}
	}
	return out
}

// CompletedItemCount counts distinct items with at least one verified check-in.
func CompletedItemCount(checkIns []CheckInFact, minScore float64) int {
	seen := map[string]struct{}{}
	for _, c := range VerifiedCheckIns(checkIns, minScore) {
		seen[c.ItemID] = struct{}{}
	}
	return len(seen)
}

// PopularItems counts check-ins per item name and returns the top n, most
// frequent first. Ties are ordered by name.
func PopularItems(checkIns []CheckInFact, n int) []ItemCount {
	if n <= 0 {
		n = PopularItemsLimit
	}
	counts := map[string]int{}
	for _, c := range checkIns {
		counts[c.ItemName]++
	}
	out := make([]ItemCount, 0, len(counts))
	for name, cnt := range counts {
		out = append(out, ItemCount{Name: name, Count: cnt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// CheckInStreak is the presence-based streak: the length of the run of
// consecutive calendar dates ending at the latest date that has any
// check-in. It is unrelated to the goal-based GoalStreak.
func CheckInStreak(times []time.Time) int {
	if len(times) == 0 {
		return 0
	}
	seen := map[time.Time]struct{}{}
	dates := make([]time.Time, 0, len(times))
	for _, t := range times {
		d := CivilDate(t)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	run := 1
	for i := len(dates) - 1; i > 0; i-- {
		if DaysBetween(dates[i-1], dates[i]) != 1 {
			break
		}
		run++
	}
	return run
}

// DaySummary is one day of a weekly summary.
type DaySummary struct {
	Date     string    `json:"date"`
	CheckIns int       `json:"check_ins"`
	Totals   Nutrients `json:"totals"`
}

// WeeklySummary aggregates check-ins over a 7-day window.
type WeeklySummary struct {
	WeekStart     string       `json:"week_start"`
	WeekEnd       string       `json:"week_end"`
	CheckIns      int          `json:"check_ins"`
	Totals        Nutrients    `json:"totals"`
	Averages      Nutrients    `json:"averages"`
	CheckInStreak int          `json:"checkin_streak"`
	Days          []DaySummary `json:"days"`
}

// BuildWeeklySummary aggregates the check-ins falling in the 7 days starting
// at weekStart's midnight. Averages are per day over all 7 days.
func BuildWeeklySummary(checkIns []CheckInFact, weekStart time.Time) WeeklySummary {
	from := DayStart(weekStart)
	to := from.AddDate(0, 0, 7)

	days := make([]DaySummary, 7)
	for i := range days {
		days[i].Date = DateKey(from.AddDate(0, 0, i))
	}

	var (
		totals Nutrients
		times  []time.Time
	)
	for _, c := range checkIns {
		at := c.At.In(from.Location())
		if at.Before(from) || !at.Before(to) {
			continue
		}
		i := DaysBetween(from, at)
		days[i].CheckIns++
		days[i].Totals = days[i].Totals.Add(c.Nutrients)
		totals = totals.Add(c.Nutrients)
		times = append(times, at)
	}
	for i := range days {
		days[i].Totals = days[i].Totals.Rounded()
	}

	return WeeklySummary{
		WeekStart:     DateKey(from),
		WeekEnd:       DateKey(to.AddDate(0, 0, -1)),
		CheckIns:      len(times),
		Totals:        totals.Rounded(),
		Averages:      totals.Div(7).Rounded(),
		CheckInStreak: CheckInStreak(times),
		Days:          days,
	}
}
