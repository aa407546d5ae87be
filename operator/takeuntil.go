package operator

import (
	"github.com/tarungka/ripple/stream"
)

// TakeUntil forwards source values until trigger produces its first value
// or completes, then completes and disposes both upstreams.
func TakeUntil(source, trigger stream.Operator) stream.Operator {
	return &takeUntil{source: source, trigger: trigger}
}

type takeUntil struct {
	source  stream.Operator
	trigger stream.Operator
}

func (o *takeUntil) Kind() string { return "TakeUntil" }

func (o *takeUntil) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	s := &takeUntilSubscription{BaseSubscription: stream.NewBaseSubscription(rt, obs)}
	s.source = s.AddInput(o.source.Subscribe(rt, stream.ObserverFuncs{
		Next:      s.Emit,
		Error:     s.Fail,
		Completed: s.Complete,
	}))
	s.trigger = s.AddInput(o.trigger.Subscribe(rt, stream.ObserverFuncs{
		Next:      func(stream.Event) { s.fire() },
		Error:     s.Fail,
		Completed: s.fire,
	}))
	return s
}

type takeUntilSubscription struct {
	*stream.BaseSubscription
	source    stream.Subscription
	trigger   stream.Subscription
	triggered bool
}

func (s *takeUntilSubscription) Start() {
	if !s.Activate() {
		return
	}
	if s.triggered {
		// completed before the checkpoint, nothing left to wire
		s.Dispose()
		return
	}
	s.trigger.Start()
	if s.Disposed() {
		return
	}
	s.source.Start()
}

func (s *takeUntilSubscription) fire() {
	if s.triggered {
		return
	}
	s.triggered = true
	s.Complete()
}

func (s *takeUntilSubscription) StateName() string    { return takeUntilState }
func (s *takeUntilSubscription) StateVersion() uint32 { return stateVersion }

func (s *takeUntilSubscription) SaveState(w *stream.StateWriter) error {
	return w.Write(s.triggered)
}

func (s *takeUntilSubscription) LoadState(r *stream.StateReader) error {
	return r.Read(&s.triggered)
}
