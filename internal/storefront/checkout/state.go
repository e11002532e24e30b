package checkout

// State is the orchestrator's position in the checkout flow.
type State string

const (
	StateIdle               State = "idle"
	StateValidating         State = "validating"
	StateSubmitting         State = "submitting"
	StateAwaitingSettlement State = "awaiting_settlement"
	StateCompleted          State = "completed"
	StateFailed             State = "failed"
)

// InProgress reports whether a new checkout must be refused.
func (s State) InProgress() bool {
	return s == StateValidating || s == StateSubmitting || s == StateAwaitingSettlement
}

func (s State) String() string {
	return string(s)
}
