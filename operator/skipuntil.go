package operator

import (
	"github.com/tarungka/ripple/stream"
)

// SkipUntil drops source values until trigger produces its first value. If
// trigger completes without a value the source stays suppressed for good.
func SkipUntil(source, trigger stream.Operator) stream.Operator {
	return &skipUntil{source: source, trigger: trigger}
}

type skipUntil struct {
	source  stream.Operator
	trigger stream.Operator
}

func (o *skipUntil) Kind() string { return "SkipUntil" }

func (o *skipUntil) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	s := &skipUntilSubscription{BaseSubscription: stream.NewBaseSubscription(rt, obs)}
	s.source = s.AddInput(o.source.Subscribe(rt, stream.ObserverFuncs{
		Next: func(v stream.Event) {
			if s.triggered {
				s.Emit(v)
			}
		},
		Error:     s.Fail,
		Completed: s.Complete,
	}))
	s.trigger = s.AddInput(o.trigger.Subscribe(rt, stream.ObserverFuncs{
		Next: func(stream.Event) {
			s.triggered = true
			s.trigger.Dispose()
		},
		Error: s.Fail,
		Completed: func() {
			s.trigger.Dispose()
		},
	}))
	return s
}

type skipUntilSubscription struct {
	*stream.BaseSubscription
	source    stream.Subscription
	trigger   stream.Subscription
	triggered bool
}

func (s *skipUntilSubscription) Start() {
	if !s.Activate() {
		return
	}
	if s.triggered {
		s.trigger.Dispose()
	} else {
		s.trigger.Start()
		if s.Disposed() {
			return
		}
	}
	s.source.Start()
}

func (s *skipUntilSubscription) StateName() string    { return skipUntilState }
func (s *skipUntilSubscription) StateVersion() uint32 { return stateVersion }

func (s *skipUntilSubscription) SaveState(w *stream.StateWriter) error {
	return w.Write(s.triggered)
}

func (s *skipUntilSubscription) LoadState(r *stream.StateReader) error {
	return r.Read(&s.triggered)
}
