package operator

import (
	"github.com/tarungka/ripple/stream"
)

// StartWith emits prefix one value per scheduler quantum and then
// subscribes to source.
func StartWith(source stream.Operator, prefix ...stream.Event) stream.Operator {
	values := make([]stream.Event, len(prefix))
	copy(values, prefix)
	return &startWith{source: source, prefix: values}
}

type startWith struct {
	source stream.Operator
	prefix []stream.Event
}

func (o *startWith) Kind() string { return "StartWith" }

func (o *startWith) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	s := &startWithSubscription{
		BaseSubscription: stream.NewBaseSubscription(rt, obs),
		prefix:           o.prefix,
	}
	s.source = s.AddInput(o.source.Subscribe(rt, stream.ObserverFuncs{
		Next:      s.Emit,
		Error:     s.Fail,
		Completed: s.Complete,
	}))
	return s
}

type startWithSubscription struct {
	*stream.BaseSubscription
	source stream.Subscription
	prefix []stream.Event
	// index of the next prefix value to emit
	next int
}

func (s *startWithSubscription) Start() {
	if !s.Activate() {
		return
	}
	if s.next < len(s.prefix) {
		s.Post(s.emitNext)
		return
	}
	s.source.Start()
}

func (s *startWithSubscription) emitNext() {
	v := s.prefix[s.next]
	s.next++
	s.Emit(v)
	if s.Disposed() {
		return
	}
	if s.next < len(s.prefix) {
		s.Post(s.emitNext)
		return
	}
	s.source.Start()
}

func (s *startWithSubscription) StateName() string    { return startWithState }
func (s *startWithSubscription) StateVersion() uint32 { return stateVersion }

func (s *startWithSubscription) SaveState(w *stream.StateWriter) error {
	return w.Write(int64(s.next))
}

func (s *startWithSubscription) LoadState(r *stream.StateReader) error {
	var next int64
	if err := r.Read(&next); err != nil {
		return err
	}
	if next < 0 || next > int64(len(s.prefix)) {
		return invalidState(startWithState, "prefix index %d out of range [0,%d]", next, len(s.prefix))
	}
	s.next = int(next)
	return nil
}
