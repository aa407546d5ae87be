package testutil

import (
	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/scheduler"
	"github.com/tarungka/ripple/stream"
)

// Harness subscribes one operator on a virtual scheduler at a chosen tick
// and records what it emits.
type Harness struct {
	Scheduler *scheduler.Virtual
	Recorder  *Recorder
	Sub       stream.Subscription
	runtime   *stream.Runtime
}

// NewHarness creates a harness around v.
func NewHarness(v *scheduler.Virtual) *Harness {
	return &Harness{
		Scheduler: v,
		Recorder:  NewRecorder(v),
		runtime:   stream.NewRuntime(v, zerolog.Nop(), "test://harness"),
	}
}

// Runtime returns the runtime subscriptions are built with.
func (h *Harness) Runtime() *stream.Runtime {
	return h.runtime
}

// SubscribeAt builds and starts a subscription to op at tick t.
func (h *Harness) SubscribeAt(t int64, op stream.Operator) {
	h.Scheduler.Schedule(nil, At(t), func() {
		h.Sub = op.Subscribe(h.runtime, h.Recorder)
		h.Sub.Start()
	})
}

// DisposeAt disposes the current subscription at tick t.
func (h *Harness) DisposeAt(t int64) {
	h.Scheduler.Schedule(nil, At(t), func() {
		if h.Sub != nil {
			h.Sub.Dispose()
		}
	})
}

// At runs fn at tick t.
func (h *Harness) At(t int64, fn func()) {
	h.Scheduler.Schedule(nil, At(t), fn)
}

// Run subscribes op at tick subscribeAt, advances the clock to until and
// returns the recorded messages.
func Run(op stream.Operator, subscribeAt, until int64) ([]Recorded, *Harness) {
	h := NewHarness(NewScheduler())
	h.SubscribeAt(subscribeAt, op)
	h.Scheduler.AdvanceTo(At(until))
	return h.Recorder.Messages(), h
}
