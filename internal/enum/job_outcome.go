package enum

// JobOutcome records the terminal state a queued job reached.
type JobOutcome string

const (
	JobOutcomeDispatched JobOutcome = "dispatched"
	JobOutcomeDropped    JobOutcome = "dropped"
	JobOutcomeFailed     JobOutcome = "failed"
)

func (t JobOutcome) String() string {
	return string(t)
}
