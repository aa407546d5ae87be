package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tarungka/ripple/checkpoint"
)

// RecoveryReport describes the outcome of Recover.
type RecoveryReport struct {
	CheckpointID string
	Sequence     uint64
	// Taken is the scheduler time the checkpoint was captured at.
	Taken     time.Time
	Recovered []string
	// Failed holds the trees that could not be restored, by URI.
	Failed map[string]error
}

// Recover rebuilds every tree of the latest checkpoint from the catalog,
// loads the saved operator state into it and starts it, which subscribes
// the upstream sources afresh. A tree that fails to load is skipped without
// affecting the others; the returned error joins every such failure and is
// returned alongside the report.
func (e *Engine) Recover(ctx context.Context) (*RecoveryReport, error) {
	e.checkpointMu.Lock()
	defer e.checkpointMu.Unlock()

	cp, err := e.checkpoints.LatestCheckpoint(ctx)
	if err != nil {
		if !errors.Is(err, checkpoint.ErrNoCheckpoint) {
			stats.Add(numRecoveryFailures, 1)
		}
		return nil, err
	}

	report := &RecoveryReport{
		CheckpointID: cp.ID,
		Sequence:     cp.Sequence,
		Taken:        cp.TakenAt(),
		Failed:       make(map[string]error),
	}

	err = e.sched.Invoke(ctx, func() error {
		if e.closed {
			return ErrEngineClosed
		}

		var loaded []*root
		var errs []error
		fail := func(uri string, err error) {
			err = fmt.Errorf("recover %s: %w", uri, err)
			report.Failed[uri] = err
			errs = append(errs, err)
			stats.Add(numRecoveryFailures, 1)
			e.logger.Err(err).Str("uri", uri).Msg("failed to recover subscription")
		}

		for _, uri := range cp.URIs() {
			if _, ok := e.roots[uri]; ok {
				fail(uri, ErrAlreadySubscribed)
				continue
			}
			def, ok := e.catalog.Lookup(uri)
			if !ok {
				fail(uri, ErrUnknownQuery)
				continue
			}
			r := e.build(uri, def)
			if err := e.checkpoints.RestoreCheckpoint(cp, uri, r.sub); err != nil {
				r.sub.Dispose()
				fail(uri, err)
				continue
			}
			loaded = append(loaded, r)
		}

		// every tree is loaded before any upstream is wired
		for _, r := range loaded {
			e.roots[r.uri] = r
			report.Recovered = append(report.Recovered, r.uri)
		}
		for _, r := range loaded {
			r.sub.Start()
		}
		return errors.Join(errs...)
	})
	if errors.Is(err, ErrEngineClosed) {
		return nil, err
	}

	stats.Add(numRecoveries, 1)
	e.logger.Info().
		Str("checkpoint", cp.ID).
		Uint64("sequence", cp.Sequence).
		Int("recovered", len(report.Recovered)).
		Int("failed", len(report.Failed)).
		Msg("recovery complete")
	return report, err
}
