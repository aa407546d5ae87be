package operator

import (
	"github.com/tarungka/ripple/stream"
)

// Take forwards the first count source values and completes.
func Take(source stream.Operator, count int64) stream.Operator {
	return &take{source: source, count: count}
}

type take struct {
	source stream.Operator
	count  int64
}

func (o *take) Kind() string { return "Take" }

func (o *take) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	s := &takeSubscription{
		BaseSubscription: stream.NewBaseSubscription(rt, obs),
		remaining:        o.count,
	}
	s.AddInput(o.source.Subscribe(rt, stream.ObserverFuncs{
		Next:      s.onNext,
		Error:     s.Fail,
		Completed: s.Complete,
	}))
	return s
}

type takeSubscription struct {
	*stream.BaseSubscription
	remaining int64
}

func (s *takeSubscription) Start() {
	if !s.Activate() {
		return
	}
	if s.remaining <= 0 {
		s.Complete()
		return
	}
	s.StartInputs()
}

func (s *takeSubscription) onNext(v stream.Event) {
	if s.remaining <= 0 {
		return
	}
	s.remaining--
	s.Emit(v)
	if s.remaining == 0 {
		s.Complete()
	}
}

func (s *takeSubscription) StateName() string    { return takeState }
func (s *takeSubscription) StateVersion() uint32 { return stateVersion }

func (s *takeSubscription) SaveState(w *stream.StateWriter) error {
	return w.Write(s.remaining)
}

func (s *takeSubscription) LoadState(r *stream.StateReader) error {
	return r.Read(&s.remaining)
}
