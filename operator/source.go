package operator

import (
	"github.com/tarungka/ripple/stream"
)

// Range is a simple source that generates count consecutive numbers
// starting at start, one per scheduler quantum, then completes.
func Range(start, count int64) stream.Operator {
	return &rangeSource{start: start, count: count}
}

type rangeSource struct {
	start int64
	count int64
}

func (o *rangeSource) Kind() string { return "Range" }

func (o *rangeSource) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	return &rangeSubscription{
		BaseSubscription: stream.NewBaseSubscription(rt, obs),
		def:              o,
	}
}

type rangeSubscription struct {
	*stream.BaseSubscription
	def  *rangeSource
	next int64
}

func (s *rangeSubscription) Start() {
	if !s.Activate() {
		return
	}
	s.Post(s.step)
}

func (s *rangeSubscription) step() {
	if s.next >= s.def.count {
		s.Complete()
		return
	}
	v := s.def.start + s.next
	s.next++
	s.Emit(v)
	if !s.Disposed() {
		s.Post(s.step)
	}
}

func (s *rangeSubscription) StateName() string    { return rangeState }
func (s *rangeSubscription) StateVersion() uint32 { return stateVersion }

func (s *rangeSubscription) SaveState(w *stream.StateWriter) error {
	return w.Write(s.next)
}

func (s *rangeSubscription) LoadState(r *stream.StateReader) error {
	var next int64
	if err := r.Read(&next); err != nil {
		return err
	}
	if next < 0 || next > s.def.count {
		return invalidState(rangeState, "index %d out of range [0,%d]", next, s.def.count)
	}
	s.next = next
	return nil
}

// Never is a source that emits nothing and never terminates.
func Never() stream.Operator {
	return never{}
}

type never struct{}

func (never) Kind() string { return "Never" }

func (never) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	return stream.NewBaseSubscription(rt, obs)
}

// Empty is a source that completes one quantum after it starts.
func Empty() stream.Operator {
	return terminal{}
}

// Throw is a source that fails with err one quantum after it starts.
func Throw(err error) stream.Operator {
	return terminal{err: err}
}

type terminal struct {
	err error
}

func (t terminal) Kind() string {
	if t.err != nil {
		return "Throw"
	}
	return "Empty"
}

func (t terminal) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	s := &terminalSubscription{BaseSubscription: stream.NewBaseSubscription(rt, obs), err: t.err}
	return s
}

type terminalSubscription struct {
	*stream.BaseSubscription
	err error
}

func (s *terminalSubscription) Start() {
	if !s.Activate() {
		return
	}
	s.Post(func() {
		if s.err != nil {
			s.Fail(s.err)
			return
		}
		s.Complete()
	})
}

// Return is a source that emits value one quantum after it starts and then
// completes.
func Return(value stream.Event) stream.Operator {
	return returnSource{value: value}
}

type returnSource struct {
	value stream.Event
}

func (returnSource) Kind() string { return "Return" }

func (o returnSource) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	return &returnSubscription{BaseSubscription: stream.NewBaseSubscription(rt, obs), value: o.value}
}

type returnSubscription struct {
	*stream.BaseSubscription
	value stream.Event
}

func (s *returnSubscription) Start() {
	if !s.Activate() {
		return
	}
	s.Post(func() {
		s.Emit(s.value)
		s.Complete()
	})
}
