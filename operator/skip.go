package operator

import (
	"github.com/tarungka/ripple/stream"
)

// Skip drops the first count source values.
func Skip(source stream.Operator, count int64) stream.Operator {
	return &skip{source: source, count: count}
}

type skip struct {
	source stream.Operator
	count  int64
}

func (o *skip) Kind() string { return "Skip" }

func (o *skip) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	s := &skipSubscription{
		BaseSubscription: stream.NewBaseSubscription(rt, obs),
		remaining:        o.count,
	}
	s.AddInput(o.source.Subscribe(rt, stream.ObserverFuncs{
		Next: func(v stream.Event) {
			if s.remaining > 0 {
				s.remaining--
				return
			}
			s.Emit(v)
		},
		Error:     s.Fail,
		Completed: s.Complete,
	}))
	return s
}

type skipSubscription struct {
	*stream.BaseSubscription
	remaining int64
}

func (s *skipSubscription) StateName() string    { return skipState }
func (s *skipSubscription) StateVersion() uint32 { return stateVersion }

func (s *skipSubscription) SaveState(w *stream.StateWriter) error {
	return w.Write(s.remaining)
}

func (s *skipSubscription) LoadState(r *stream.StateReader) error {
	return r.Read(&s.remaining)
}
