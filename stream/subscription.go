package stream

// Lifecycle is the state of a subscription.
type Lifecycle int

const (
	Created Lifecycle = iota
	Subscribed
	Disposed
)

func (l Lifecycle) String() string {
	switch l {
	case Created:
		return "created"
	case Subscribed:
		return "subscribed"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Subscription is the live instance of an operator bound to one observer
// and its upstream subscriptions.
type Subscription interface {
	// Start wires the subscription to its upstreams and schedules its
	// timers. It is a no-op unless the subscription is Created.
	Start()
	// Dispose is idempotent. It synchronously stops future callbacks,
	// removes pending scheduled actions and cascades to the inputs.
	Dispose()
	// Inputs returns the upstream subscriptions in a stable order.
	Inputs() []Subscription
	// Lifecycle returns the current state.
	Lifecycle() Lifecycle
}

// Stateful is implemented by subscriptions whose state is checkpointed.
// SaveState must only read the operator's own fields; LoadState is called
// after construction and before Start.
type Stateful interface {
	StateName() string
	StateVersion() uint32
	SaveState(w *StateWriter) error
	LoadState(r *StateReader) error
}

// Walk visits sub and its inputs depth-first, parents before children.
func Walk(sub Subscription, fn func(Subscription) error) error {
	if err := fn(sub); err != nil {
		return err
	}
	for _, in := range sub.Inputs() {
		if err := Walk(in, fn); err != nil {
			return err
		}
	}
	return nil
}
