package models

// OutcomeStatus is the result of a persistence attempt.
type OutcomeStatus string

const (
	OutcomeCommitted OutcomeStatus = "committed"
	OutcomeFailed    OutcomeStatus = "failed"
	// OutcomeSkipped means no persister was configured.
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Outcome reports what happened to a persistence request. The in-memory
// record set is never rolled back on failure.
type Outcome struct {
	Status   OutcomeStatus
	Path     string
	Message  string
	Document Document
	// Recovered is set when the operator accepted the manual copy fallback.
	Recovered bool
	Err       error
}

func (o Outcome) Committed() bool {
	return o.Status == OutcomeCommitted
}
