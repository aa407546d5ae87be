// Package engine is the query engine façade: a URI-keyed registry of live
// subscription roots that can be checkpointed and recovered.
//
// Every registry operation runs on the engine's scheduler through Invoke, so
// checkpoints observe the graph between two callbacks and never in the middle
// of one.
package engine

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/checkpoint"
	"github.com/tarungka/ripple/internal/logger"
	"github.com/tarungka/ripple/scheduler"
	"github.com/tarungka/ripple/state"
	"github.com/tarungka/ripple/stream"
)

// Config configures an Engine.
type Config struct {
	// ID names the engine in the state store. An engine recovering another
	// one's checkpoint must use the same ID.
	ID string `koanf:"id"`
	// CheckpointInterval is the period of the CheckpointCoordinator.
	CheckpointInterval time.Duration `koanf:"checkpoint_interval"`
	// Compression is applied to checkpoint blobs: none, snappy or zstd.
	Compression string `koanf:"compression"`
}

// Engine hosts the subscription roots of one engine instance.
type Engine struct {
	id      string
	config  Config
	sched   scheduler.Scheduler
	catalog *Catalog
	logger  zerolog.Logger

	checkpoints *checkpoint.CheckpointManager
	// serializes checkpoints and recoveries, which share the manager
	checkpointMu sync.Mutex

	// owned by the scheduler thread
	roots  map[string]*root
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the default logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine running on sched, persisting checkpoints to store
// and resolving URIs through catalog.
func New(config Config, sched scheduler.Scheduler, store state.Store, catalog *Catalog, opts ...Option) (*Engine, error) {
	if config.ID == "" {
		return nil, errors.New("engine: id is required")
	}
	compression, err := checkpoint.ParseCompressionType(config.Compression)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		id:      config.ID,
		config:  config,
		sched:   sched,
		catalog: catalog,
		logger:  logger.GetLogger("engine"),
		roots:   make(map[string]*root),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("engine", e.id).Logger()
	e.checkpoints = checkpoint.NewCheckpointManager(e.id, store,
		checkpoint.WithCompression(compression),
		checkpoint.WithLogger(e.logger),
	)
	return e, nil
}

// ID returns the engine id.
func (e *Engine) ID() string {
	return e.id
}

// Scheduler returns the scheduler driving the engine.
func (e *Engine) Scheduler() scheduler.Scheduler {
	return e.sched
}

// Catalog returns the query definitions of the engine.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Subscribe builds and starts the query registered under uri.
func (e *Engine) Subscribe(ctx context.Context, uri string) error {
	def, ok := e.catalog.Lookup(uri)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuery, uri)
	}
	return e.sched.Invoke(ctx, func() error {
		if e.closed {
			return ErrEngineClosed
		}
		if _, ok := e.roots[uri]; ok {
			return fmt.Errorf("%w: %s", ErrAlreadySubscribed, uri)
		}
		r := e.build(uri, def)
		e.roots[uri] = r
		stats.Add(numSubscriptions, 1)
		e.logger.Debug().Str("uri", uri).Str("operator", def.Operator.Kind()).Msg("subscribing")
		r.sub.Start()
		return nil
	})
}

// Dispose tears down the root subscribed under uri and forgets it.
func (e *Engine) Dispose(ctx context.Context, uri string) error {
	return e.sched.Invoke(ctx, func() error {
		r, ok := e.roots[uri]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotSubscribed, uri)
		}
		delete(e.roots, uri)
		r.sub.Dispose()
		e.logger.Debug().Str("uri", uri).Msg("disposed")
		return nil
	})
}

// Remove disposes every root without checkpointing, the way a crash loses
// them. The engine stays usable.
func (e *Engine) Remove(ctx context.Context) error {
	return e.sched.Invoke(ctx, func() error {
		e.removeAll()
		return nil
	})
}

// Close removes every root and refuses further operations.
func (e *Engine) Close(ctx context.Context) error {
	return e.sched.Invoke(ctx, func() error {
		e.removeAll()
		e.closed = true
		return nil
	})
}

func (e *Engine) removeAll() {
	for uri, r := range e.roots {
		r.sub.Dispose()
		delete(e.roots, uri)
	}
	e.logger.Info().Msg("all subscriptions removed")
}

// Checkpoint snapshots every active root and atomically replaces the
// engine's checkpoint in the store. If any operator fails to save, nothing
// is written and the previous checkpoint stays the latest one. The live
// graph is never affected.
func (e *Engine) Checkpoint(ctx context.Context) (*checkpoint.Checkpoint, error) {
	e.checkpointMu.Lock()
	defer e.checkpointMu.Unlock()

	start := time.Now()
	var cp *checkpoint.Checkpoint
	err := e.sched.Invoke(ctx, func() error {
		if e.closed {
			return ErrEngineClosed
		}
		var err error
		cp, err = e.checkpoints.Capture(e.sched.Now(), e.activeRoots())
		return err
	})
	if err == nil {
		err = e.checkpoints.Persist(ctx, cp)
	}
	if err != nil {
		stats.Add(numCheckpointsFailed, 1)
		e.logger.Err(err).Msg("checkpoint failed")
		return nil, err
	}

	stats.Add(numCheckpoints, 1)
	stats.Get(lastCheckpointSequence).(*expvar.Int).Set(int64(cp.Sequence))
	stats.Get(lastCheckpointDuration).(*expvar.Int).Set(time.Since(start).Milliseconds())
	e.logger.Info().
		Str("id", cp.ID).
		Uint64("sequence", cp.Sequence).
		Int("queries", len(cp.Queries)).
		Msg("checkpoint complete")
	return cp, nil
}

// activeRoots returns the roots that have not terminated. Terminated roots
// stay registered until disposed but have nothing left to recover.
func (e *Engine) activeRoots() map[string]stream.Subscription {
	active := make(map[string]stream.Subscription, len(e.roots))
	for uri, r := range e.roots {
		if r.active() {
			active[uri] = r.sub
		}
	}
	return active
}

// SubscriptionInfo describes a registered root.
type SubscriptionInfo struct {
	URI       string `json:"uri"`
	Operator  string `json:"operator"`
	Lifecycle string `json:"lifecycle"`
	Active    bool   `json:"active"`
}

// Subscriptions lists the registered roots in URI order.
func (e *Engine) Subscriptions(ctx context.Context) ([]SubscriptionInfo, error) {
	var infos []SubscriptionInfo
	err := e.sched.Invoke(ctx, func() error {
		for uri, r := range e.roots {
			infos = append(infos, SubscriptionInfo{
				URI:       uri,
				Operator:  r.kind,
				Lifecycle: r.sub.Lifecycle().String(),
				Active:    r.active(),
			})
		}
		return nil
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].URI < infos[j].URI })
	return infos, err
}

// URIs returns the registered URIs in sorted order.
func (e *Engine) URIs(ctx context.Context) ([]string, error) {
	infos, err := e.Subscriptions(ctx)
	if err != nil {
		return nil, err
	}
	uris := make([]string, len(infos))
	for i, info := range infos {
		uris[i] = info.URI
	}
	return uris, nil
}

// Active reports whether uri is registered and has not terminated.
func (e *Engine) Active(ctx context.Context, uri string) (bool, error) {
	var active bool
	err := e.sched.Invoke(ctx, func() error {
		r, ok := e.roots[uri]
		active = ok && r.active()
		return nil
	})
	return active, err
}

func (e *Engine) build(uri string, def Definition) *root {
	rt := stream.NewRuntime(e.sched, e.logger, uri)
	var downstream stream.Observer
	if def.Observer != nil {
		downstream = def.Observer(uri)
	} else {
		downstream = stream.NewLogObserver(rt.Logger, uri)
	}
	r := &root{uri: uri, kind: def.Operator.Kind()}
	r.sub = def.Operator.Subscribe(rt, &rootObserver{root: r, next: downstream})
	return r
}

// root is a registered subscription tree.
type root struct {
	uri        string
	kind       string
	sub        stream.Subscription
	terminated bool
}

func (r *root) active() bool {
	return !r.terminated && r.sub.Lifecycle() != stream.Disposed
}

// rootObserver marks its root terminated before forwarding a terminal
// notification.
type rootObserver struct {
	root *root
	next stream.Observer
}

func (o *rootObserver) OnNext(value stream.Event) {
	o.next.OnNext(value)
}

func (o *rootObserver) OnError(err error) {
	o.root.terminated = true
	o.next.OnError(err)
}

func (o *rootObserver) OnCompleted() {
	o.root.terminated = true
	o.next.OnCompleted()
}
