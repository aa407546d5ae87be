package operator

import (
	"github.com/tarungka/ripple/stream"
)

// FirstAsync forwards the first source value and completes. A source that
// completes without values yields stream.ErrEmptySequence.
func FirstAsync(source stream.Operator) stream.Operator {
	return &firstAsync{source: source}
}

type firstAsync struct {
	source stream.Operator
}

func (o *firstAsync) Kind() string { return "FirstAsync" }

func (o *firstAsync) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	s := &firstAsyncSubscription{BaseSubscription: stream.NewBaseSubscription(rt, obs)}
	s.AddInput(o.source.Subscribe(rt, stream.ObserverFuncs{
		Next:  s.onNext,
		Error: s.Fail,
		Completed: func() {
			if !s.done {
				s.done = true
				s.Fail(stream.ErrEmptySequence)
			}
		},
	}))
	return s
}

type firstAsyncSubscription struct {
	*stream.BaseSubscription
	done bool
}

func (s *firstAsyncSubscription) Start() {
	if !s.Activate() {
		return
	}
	if s.done {
		s.Dispose()
		return
	}
	s.StartInputs()
}

func (s *firstAsyncSubscription) onNext(v stream.Event) {
	if s.done {
		return
	}
	s.done = true
	s.Emit(v)
	s.Complete()
}

func (s *firstAsyncSubscription) StateName() string    { return firstAsyncState }
func (s *firstAsyncSubscription) StateVersion() uint32 { return stateVersion }

func (s *firstAsyncSubscription) SaveState(w *stream.StateWriter) error {
	return w.Write(s.done)
}

func (s *firstAsyncSubscription) LoadState(r *stream.StateReader) error {
	return r.Read(&s.done)
}
