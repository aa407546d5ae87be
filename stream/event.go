package stream

import "fmt"

// Event is a value flowing through a subscription graph.
type Event = any

// Kind identifies the three notifications an observer can receive.
type Kind int

const (
	KindNext Kind = iota
	KindError
	KindCompleted
)

func (k Kind) String() string {
	switch k {
	case KindNext:
		return "OnNext"
	case KindError:
		return "OnError"
	case KindCompleted:
		return "OnCompleted"
	default:
		return "Unknown"
	}
}

// Notification is a materialized observer callback.
type Notification struct {
	Kind  Kind
	Value Event
	Err   error
}

// Next returns an OnNext notification carrying v.
func Next(v Event) Notification {
	return Notification{Kind: KindNext, Value: v}
}

// Error returns an OnError notification carrying err.
func Error(err error) Notification {
	return Notification{Kind: KindError, Err: err}
}

// Completed returns an OnCompleted notification.
func Completed() Notification {
	return Notification{Kind: KindCompleted}
}

// Accept delivers the notification to obs.
func (n Notification) Accept(obs Observer) {
	switch n.Kind {
	case KindNext:
		obs.OnNext(n.Value)
	case KindError:
		obs.OnError(n.Err)
	case KindCompleted:
		obs.OnCompleted()
	}
}

// Terminal reports whether the notification ends a sequence.
func (n Notification) Terminal() bool {
	return n.Kind != KindNext
}

func (n Notification) String() string {
	switch n.Kind {
	case KindNext:
		return fmt.Sprintf("OnNext(%v)", n.Value)
	case KindError:
		return fmt.Sprintf("OnError(%v)", n.Err)
	default:
		return n.Kind.String() + "()"
	}
}
