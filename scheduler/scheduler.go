// Package scheduler provides the single logical clock that drives every
// callback of an engine. Actions are kept in a due-time ordered queue and
// executed one at a time; equal due times run in the order they were
// scheduled.
//
// Two implementations share the same contract. Virtual is a deterministic,
// test-controlled clock. Realtime maps the queue onto wall-clock timers and
// runs every action on a single goroutine.
package scheduler

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidPeriod is returned when a periodic action is requested with a
	// non-positive period.
	ErrInvalidPeriod = errors.New("scheduler: period must be positive")
)

// Scheduler is the clock and action queue of an engine.
type Scheduler interface {
	// Now returns the current time of the clock.
	Now() time.Time

	// Schedule queues action to run at due. A due time in the past runs as
	// soon as the scheduler gets to it, at the current clock time.
	Schedule(owner any, due time.Time, action Action) *Task

	// Post queues action for the next scheduler quantum.
	Post(owner any, action Action) *Task

	// CancelAll removes every pending task of owner and returns how many
	// were removed.
	CancelAll(owner any) int

	// Invoke runs fn on the scheduler thread and waits for its result.
	Invoke(ctx context.Context, fn func() error) error
}

// Periodic runs fn at first, first+period, first+2*period and so on until fn
// returns false or the owner's tasks are cancelled. The next due time is
// always derived from the previous due time, never from the clock, so ticks
// missed while the clock was elsewhere are caught up back-to-back and the
// cadence does not drift.
func Periodic(s Scheduler, owner any, first time.Time, period time.Duration, fn func(due time.Time) bool) (*Task, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	var tick func(due time.Time) Action
	tick = func(due time.Time) Action {
		return func() {
			if !fn(due) {
				return
			}
			next := due.Add(period)
			s.Schedule(owner, next, tick(next))
		}
	}
	return s.Schedule(owner, first, tick(first)), nil
}
