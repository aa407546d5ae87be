package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Realtime maps the scheduler contract onto wall-clock time. Every action
// runs on the goroutine that called Run; Schedule, Post and CancelAll may be
// called from any goroutine.
type Realtime struct {
	q      *queue
	wake   chan struct{}
	logger zerolog.Logger
}

// NewRealtime creates a wall-clock scheduler. Nothing runs until Run is
// called.
func NewRealtime(logger zerolog.Logger) *Realtime {
	return &Realtime{
		q:      newQueue(),
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Now returns the wall clock.
func (r *Realtime) Now() time.Time {
	return time.Now()
}

// Schedule queues action at due and wakes the loop in case the new task is
// the earliest one.
func (r *Realtime) Schedule(owner any, due time.Time, action Action) *Task {
	t := r.q.push(owner, due, action)
	r.signal()
	return t
}

// Post queues action behind everything that is already due.
func (r *Realtime) Post(owner any, action Action) *Task {
	return r.Schedule(owner, time.Now(), action)
}

// CancelAll removes every pending task of owner.
func (r *Realtime) CancelAll(owner any) int {
	return r.q.removeOwner(owner)
}

// Invoke runs fn on the scheduler goroutine and waits for it. It must not be
// called from inside an action, which would wait on itself.
func (r *Realtime) Invoke(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	r.Post(nil, func() {
		done <- fn()
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Realtime) signal() {
	// buffer of 1 coalesces wake-ups
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run services the queue until ctx is cancelled. It is the only suspension
// point of the engine.
func (r *Realtime) Run(ctx context.Context) error {
	r.logger.Debug().Msg("scheduler loop started")
	defer r.logger.Debug().Msg("scheduler loop stopped")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if task := r.q.popDue(time.Now()); task != nil {
			r.run(task)
			continue
		}

		var timer *time.Timer
		var fire <-chan time.Time
		if due, ok := r.q.next(); ok {
			timer = time.NewTimer(time.Until(due))
			fire = timer.C
		}

		select {
		case <-ctx.Done():
		case <-r.wake:
		case <-fire:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (r *Realtime) run(task *Task) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Err(fmt.Errorf("%v", p)).Time("due", task.due).Msg("scheduled action panicked")
		}
	}()
	task.action()
}
