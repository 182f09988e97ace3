package engine

// DefaultGoalTolerancePct is how far from target a metric may land and
// still count toward a satisfied day.
const DefaultGoalTolerancePct = 10.0

// MetricReading is one raw target/actual pair of a daily record.
type MetricReading struct {
	Name   string  `json:"name" validate:"required"`
	Target float64 `json:"target" validate:"gte=0"`
	Actual float64 `json:"actual" validate:"gte=0"`
}

// Percent returns actual as a percentage of target.
func Percent(actual, target float64) float64 {
	if target <= 0 {
		if actual <= 0 {
			return 0
		}
		return 100
	}
	return round2(actual / target * 100)
}

// DeriveGoalSatisfied reports whether every metric that has a target landed
// within tolerancePct of it. A day without targets is never satisfied.
func DeriveGoalSatisfied(metrics []MetricReading, tolerancePct float64) bool {
	targets := 0
	for _, m := range metrics {
		if m.Target <= 0 {
			continue
		}
		targets++
		p := Percent(m.Actual, m.Target)
		if p < 100-tolerancePct || p > 100+tolerancePct {
			return false
		}
	}
	return targets > 0
}
