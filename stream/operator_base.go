package stream

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/scheduler"
)

// BaseSubscription is embedded by every operator subscription. It owns the
// lifecycle, the downstream observer and the inputs, and guarantees that
// at most one terminal notification is emitted and that nothing is emitted
// after disposal.
type BaseSubscription struct {
	rt       *Runtime
	observer Observer
	inputs   []Subscription
	state    Lifecycle
	// set once a terminal notification went downstream
	stopped  bool
	cleanups []func()
}

// NewBaseSubscription creates a subscription in the Created state.
func NewBaseSubscription(rt *Runtime, obs Observer) *BaseSubscription {
	return &BaseSubscription{
		rt:       rt,
		observer: obs,
		state:    Created,
	}
}

// Runtime returns the runtime the subscription was built with.
func (b *BaseSubscription) Runtime() *Runtime {
	return b.rt
}

// Logger returns the URI-scoped logger of the tree.
func (b *BaseSubscription) Logger() *zerolog.Logger {
	return &b.rt.Logger
}

// Inputs returns the upstream subscriptions.
func (b *BaseSubscription) Inputs() []Subscription {
	return b.inputs
}

// Lifecycle returns the current state.
func (b *BaseSubscription) Lifecycle() Lifecycle {
	return b.state
}

// AddInput registers an upstream subscription. Inputs are disposed with the
// subscription and walked by checkpoints in the order they were added.
func (b *BaseSubscription) AddInput(sub Subscription) Subscription {
	b.inputs = append(b.inputs, sub)
	return sub
}

// OnDispose registers fn to run when the subscription is disposed.
func (b *BaseSubscription) OnDispose(fn func()) {
	b.cleanups = append(b.cleanups, fn)
}

// Activate moves a Created subscription to Subscribed. It returns false if
// the subscription was already started or disposed.
func (b *BaseSubscription) Activate() bool {
	if b.state != Created {
		return false
	}
	b.state = Subscribed
	return true
}

// Start activates the subscription and starts every input. Operators with
// their own start logic call Activate and start inputs selectively.
func (b *BaseSubscription) Start() {
	if !b.Activate() {
		return
	}
	b.StartInputs()
}

// StartInputs starts the inputs in order, stopping early if one of them
// terminates this subscription synchronously.
func (b *BaseSubscription) StartInputs() {
	for _, in := range b.inputs {
		if b.state == Disposed {
			return
		}
		in.Start()
	}
}

// Disposed reports whether Dispose has been called.
func (b *BaseSubscription) Disposed() bool {
	return b.state == Disposed
}

// Now returns the scheduler clock.
func (b *BaseSubscription) Now() time.Time {
	return b.rt.Scheduler.Now()
}

// Schedule queues action at due. The task is owned by this subscription and
// is removed when it is disposed.
func (b *BaseSubscription) Schedule(due time.Time, action scheduler.Action) *scheduler.Task {
	return b.rt.Scheduler.Schedule(b, due, b.guard(action))
}

// Post queues action for the next scheduler quantum.
func (b *BaseSubscription) Post(action scheduler.Action) *scheduler.Task {
	return b.rt.Scheduler.Post(b, b.guard(action))
}

// Periodic runs fn every period starting at first, see scheduler.Periodic.
func (b *BaseSubscription) Periodic(first time.Time, period time.Duration, fn func(due time.Time) bool) error {
	_, err := scheduler.Periodic(b.rt.Scheduler, b, first, period, func(due time.Time) bool {
		if b.state == Disposed {
			return false
		}
		return fn(due)
	})
	return err
}

func (b *BaseSubscription) guard(action scheduler.Action) scheduler.Action {
	return func() {
		if b.state == Disposed {
			return
		}
		action()
	}
}

// Emit forwards value downstream unless the subscription has terminated.
func (b *BaseSubscription) Emit(value Event) {
	if b.stopped || b.state == Disposed {
		return
	}
	b.observer.OnNext(value)
}

// Fail emits OnError and disposes the subscription.
func (b *BaseSubscription) Fail(err error) {
	if b.stopped || b.state == Disposed {
		return
	}
	b.stopped = true
	b.observer.OnError(err)
	b.Dispose()
}

// Complete emits OnCompleted and disposes the subscription.
func (b *BaseSubscription) Complete() {
	if b.stopped || b.state == Disposed {
		return
	}
	b.stopped = true
	b.observer.OnCompleted()
	b.Dispose()
}

// Dispose cancels scheduled actions, disposes the inputs and runs the
// registered cleanups. Calling it again has no effect.
func (b *BaseSubscription) Dispose() {
	if b.state == Disposed {
		return
	}
	b.state = Disposed
	b.rt.Scheduler.CancelAll(b)
	for _, in := range b.inputs {
		in.Dispose()
	}
	for _, fn := range b.cleanups {
		fn()
	}
	b.cleanups = nil
}
