package sources

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/internal/logger"
	"github.com/tarungka/ripple/stream"
)

// Hub is an in-process set of named topics. Publish may be called from any
// goroutine; each subscriber receives the value on its own scheduler.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*hubSubscription]struct{}
	logger zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*hubSubscription]struct{}),
		logger: logger.GetLogger("hub"),
	}
}

// Topic returns a source that emits what is published to name while it is
// subscribed.
func (h *Hub) Topic(name string) stream.Operator {
	return &hubTopic{hub: h, name: name}
}

// Publish delivers value to the current subscribers of topic and returns how
// many there were.
func (h *Hub) Publish(topic string, value stream.Event) int {
	subs := h.subscribers(topic)
	for _, s := range subs {
		s := s
		s.Post(func() {
			s.Emit(value)
		})
	}
	h.logger.Trace().Str("topic", topic).Int("subscribers", len(subs)).Msg("published")
	return len(subs)
}

// Complete ends the current subscriptions of topic. Later subscribers are
// unaffected.
func (h *Hub) Complete(topic string) {
	for _, s := range h.subscribers(topic) {
		s := s
		s.Post(s.Complete)
	}
}

// Topics returns the topics that currently have subscribers.
func (h *Hub) Topics() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.topics))
	for name := range h.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Hub) subscribers(topic string) []*hubSubscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make([]*hubSubscription, 0, len(h.topics[topic]))
	for s := range h.topics[topic] {
		subs = append(subs, s)
	}
	// delivery order follows subscription order
	sort.Slice(subs, func(i, j int) bool { return subs[i].seq < subs[j].seq })
	return subs
}

func (h *Hub) add(s *hubSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[s.topic]
	if !ok {
		subs = make(map[*hubSubscription]struct{})
		h.topics[s.topic] = subs
	}
	subs[s] = struct{}{}
}

func (h *Hub) remove(s *hubSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.topics[s.topic]
	delete(subs, s)
	if len(subs) == 0 {
		delete(h.topics, s.topic)
	}
}

var hubSeq atomic.Uint64

type hubTopic struct {
	hub  *Hub
	name string
}

func (o *hubTopic) Kind() string { return "Hub(" + o.name + ")" }

func (o *hubTopic) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	return &hubSubscription{
		BaseSubscription: stream.NewBaseSubscription(rt, obs),
		hub:              o.hub,
		topic:            o.name,
	}
}

type hubSubscription struct {
	*stream.BaseSubscription
	hub   *Hub
	topic string
	seq   uint64
}

func (s *hubSubscription) Start() {
	if !s.Activate() {
		return
	}
	s.seq = hubSeq.Add(1)
	s.hub.add(s)
	s.OnDispose(func() {
		s.hub.remove(s)
	})
}
