package engine

// Phase is the lifecycle position of a plan.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
)

// CompletionDecision is the pure outcome of observing a plan. Fire is true
// only for the single transition into PhaseCompleted; the caller must set
// the plan's completed flag and emit the event atomically.
type CompletionDecision struct {
	Phase Phase `json:"phase"`
	Fire  bool  `json:"-"`
}

// EvaluateCompletion decides the phase of a plan from its persisted
// completed flag and the current cycle state. A completed plan never goes
// back to in-progress.
func EvaluateCompletion(completed bool, st CycleState) CompletionDecision {
	switch {
	case completed:
		return CompletionDecision{Phase: PhaseCompleted}
	case st.Exceeded:
		return CompletionDecision{Phase: PhaseCompleted, Fire: true}
	case !st.Started:
		return CompletionDecision{Phase: PhaseNotStarted}
	default:
		return CompletionDecision{Phase: PhaseInProgress}
	}
}

// CompletionSummary is the payload carried by a completion event.
type CompletionSummary struct {
	TotalItems     int       `json:"total_items"`
	CompletedItems int       `json:"completed_items"`
	Totals         Nutrients `json:"totals"`
	AveragePerDay  Nutrients `json:"average_per_day"`
}

// SummarizeCompletion totals the nutrients of verified check-ins over the
// whole cycle. Check-ins scoring below minScore are ignored.
func SummarizeCompletion(totalItems int, checkIns []CheckInFact, minScore float64, cycleLengthDays int) CompletionSummary {
	verified := VerifiedCheckIns(checkIns, minScore)

	var totals Nutrients
	for _, c := range verified {
		totals = totals.Add(c.Nutrients)
	}

	out := CompletionSummary{
		TotalItems:     totalItems,
		CompletedItems: CompletedItemCount(checkIns, minScore),
		Totals:         totals.Rounded(),
	}
	if cycleLengthDays > 0 {
		out.AveragePerDay = totals.Div(float64(cycleLengthDays)).Rounded()
	}
	return out
}
