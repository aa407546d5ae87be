package testutil

import (
	"github.com/tarungka/ripple/scheduler"
	"github.com/tarungka/ripple/stream"
)

// ColdObservable replays its messages relative to the time each
// subscription is started, the way a source that is subscribed afresh
// after recovery behaves.
type ColdObservable struct {
	messages []Recorded
	spans    *[]Span
}

// Cold creates a cold test source. Message times are offsets from the
// moment the subscription starts.
func Cold(messages ...Recorded) *ColdObservable {
	return &ColdObservable{messages: messages, spans: new([]Span)}
}

func (c *ColdObservable) Kind() string { return "test:cold" }

// Subscriptions returns the recorded subscription spans.
func (c *ColdObservable) Subscriptions() []Span {
	out := make([]Span, len(*c.spans))
	copy(out, *c.spans)
	return out
}

func (c *ColdObservable) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	return &coldSubscription{
		BaseSubscription: stream.NewBaseSubscription(rt, obs),
		source:           c,
		span:             -1,
	}
}

type coldSubscription struct {
	*stream.BaseSubscription
	source *ColdObservable
	span   int
}

func (s *coldSubscription) Start() {
	if !s.Activate() {
		return
	}
	now := s.Now()
	*s.source.spans = append(*s.source.spans, Span{Start: Ticks(now), End: -1})
	s.span = len(*s.source.spans) - 1
	s.OnDispose(func() {
		(*s.source.spans)[s.span].End = Ticks(s.Now())
	})

	for _, m := range s.source.messages {
		m := m
		s.Schedule(now.Add(scheduleOffset(m.Time)), func() {
			switch m.Kind {
			case stream.KindNext:
				s.Emit(m.Value)
			case stream.KindError:
				s.Fail(m.Err)
			case stream.KindCompleted:
				s.Complete()
			}
		})
	}
}


// HotObservable emits its messages at absolute times whether or not anyone
// is subscribed, like a live event source.
type HotObservable struct {
	subscribers map[*hotSubscription]struct{}
	spans       []Span
	clock       scheduler.Scheduler
}

// Hot creates a hot test source and schedules its messages on s.
func Hot(s scheduler.Scheduler, messages ...Recorded) *HotObservable {
	h := &HotObservable{
		subscribers: make(map[*hotSubscription]struct{}),
		clock:       s,
	}
	for _, m := range messages {
		m := m
		s.Schedule(h, At(m.Time), func() {
			for sub := range h.snapshot() {
				switch m.Kind {
				case stream.KindNext:
					sub.Emit(m.Value)
				case stream.KindError:
					sub.Fail(m.Err)
				case stream.KindCompleted:
					sub.Complete()
				}
			}
		})
	}
	return h
}

func (h *HotObservable) snapshot() map[*hotSubscription]struct{} {
	out := make(map[*hotSubscription]struct{}, len(h.subscribers))
	for k := range h.subscribers {
		out[k] = struct{}{}
	}
	return out
}

func (h *HotObservable) Kind() string { return "test:hot" }

// Subscriptions returns the recorded subscription spans.
func (h *HotObservable) Subscriptions() []Span {
	out := make([]Span, len(h.spans))
	copy(out, h.spans)
	return out
}

func (h *HotObservable) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	return &hotSubscription{
		BaseSubscription: stream.NewBaseSubscription(rt, obs),
		source:           h,
		span:             -1,
	}
}

type hotSubscription struct {
	*stream.BaseSubscription
	source *HotObservable
	span   int
}

func (s *hotSubscription) Start() {
	if !s.Activate() {
		return
	}
	s.source.subscribers[s] = struct{}{}
	s.source.spans = append(s.source.spans, Span{Start: Ticks(s.Now()), End: -1})
	s.span = len(s.source.spans) - 1
	s.OnDispose(func() {
		delete(s.source.subscribers, s)
		s.source.spans[s.span].End = Ticks(s.Now())
	})
}
