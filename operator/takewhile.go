package operator

import (
	"github.com/tarungka/ripple/stream"
)

// Predicate tests a value. A returned error, or a panic, terminates the
// subscription with OnError.
type Predicate func(value stream.Event) (bool, error)

// TakeWhile forwards source values while predicate holds. The first value
// failing the predicate completes the subscription.
func TakeWhile(source stream.Operator, predicate Predicate) stream.Operator {
	return &takeWhile{source: source, predicate: predicate}
}

type takeWhile struct {
	source    stream.Operator
	predicate Predicate
}

func (o *takeWhile) Kind() string { return "TakeWhile" }

func (o *takeWhile) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	s := &takeWhileSubscription{
		BaseSubscription: stream.NewBaseSubscription(rt, obs),
		predicate:        o.predicate,
	}
	s.AddInput(o.source.Subscribe(rt, stream.ObserverFuncs{
		Next:      s.onNext,
		Error:     s.Fail,
		Completed: s.Complete,
	}))
	return s
}

type takeWhileSubscription struct {
	*stream.BaseSubscription
	predicate Predicate
	done      bool
}

func (s *takeWhileSubscription) Start() {
	if !s.Activate() {
		return
	}
	if s.done {
		s.Dispose()
		return
	}
	s.StartInputs()
}

func (s *takeWhileSubscription) onNext(v stream.Event) {
	if s.done {
		return
	}
	var ok bool
	err := stream.Safely(func() (err error) {
		ok, err = s.predicate(v)
		return err
	})
	if err != nil {
		s.done = true
		s.Fail(err)
		return
	}
	if !ok {
		s.done = true
		s.Complete()
		return
	}
	s.Emit(v)
}

func (s *takeWhileSubscription) StateName() string    { return takeWhileState }
func (s *takeWhileSubscription) StateVersion() uint32 { return stateVersion }

func (s *takeWhileSubscription) SaveState(w *stream.StateWriter) error {
	return w.Write(s.done)
}

func (s *takeWhileSubscription) LoadState(r *stream.StateReader) error {
	return r.Read(&s.done)
}
