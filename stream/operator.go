package stream

import (
	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/scheduler"
)

// Operator is the immutable definition of a dataflow transform: its kind,
// captured parameters and upstream operators. It is a stateless factory
// that produces a Subscription for every observer.
type Operator interface {
	// Kind names the operator, for logs and diagnostics.
	Kind() string
	// Subscribe builds the subscription tree for obs. The returned
	// subscription is in the Created state; nothing is wired or scheduled
	// until Start is called.
	Subscribe(rt *Runtime, obs Observer) Subscription
}

// Runtime carries what a subscription needs from its engine.
type Runtime struct {
	Scheduler scheduler.Scheduler
	Logger    zerolog.Logger
	// URI of the root subscription this tree belongs to.
	URI string
}

// NewRuntime creates a Runtime for the subscription tree named uri.
func NewRuntime(s scheduler.Scheduler, logger zerolog.Logger, uri string) *Runtime {
	return &Runtime{
		Scheduler: s,
		Logger:    logger.With().Str("uri", uri).Logger(),
		URI:       uri,
	}
}
