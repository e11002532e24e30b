package cart

// EventKind classifies a mutation outcome for the UI layer.
type EventKind string

const (
	EventApplied  EventKind = "applied"
	EventFailed   EventKind = "failed"
	EventDegraded EventKind = "degraded"
)

// Event reports the outcome of one Store operation.
type Event struct {
	Kind      EventKind
	Op        Op
	ProductID string
	Err       error
	Lines     int
	Total     int64
}

// Notifier receives Store events. Notify is called with the Store lock held
// and must not call back into the Store.
type Notifier interface {
	Notify(Event)
}

type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
