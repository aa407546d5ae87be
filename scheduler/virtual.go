package scheduler

import (
	"context"
	"time"
)

// Quantum is the smallest step of the virtual clock. Post schedules one
// quantum after the current time so that consecutive posts are observable as
// distinct instants.
const Quantum = time.Duration(1)

// Virtual is a deterministic, single-threaded scheduler whose clock only
// moves when the caller advances it.
type Virtual struct {
	q   *queue
	now time.Time
}

// NewVirtual creates a virtual scheduler whose clock starts at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{
		q:   newQueue(),
		now: start,
	}
}

// Now returns the virtual clock.
func (v *Virtual) Now() time.Time {
	return v.now
}

// Schedule queues action at due.
func (v *Virtual) Schedule(owner any, due time.Time, action Action) *Task {
	return v.q.push(owner, due, action)
}

// Post queues action one quantum after the current clock.
func (v *Virtual) Post(owner any, action Action) *Task {
	return v.q.push(owner, v.now.Add(Quantum), action)
}

// CancelAll removes every pending task of owner.
func (v *Virtual) CancelAll(owner any) int {
	return v.q.removeOwner(owner)
}

// Invoke runs fn inline; the virtual scheduler has no thread of its own.
func (v *Virtual) Invoke(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// AdvanceTo runs every task due at or before t, in order, and leaves the
// clock at t. Tasks due in the past run at the current clock, which never
// moves backwards.
func (v *Virtual) AdvanceTo(t time.Time) {
	for {
		task := v.q.popDue(t)
		if task == nil {
			break
		}
		if task.due.After(v.now) {
			v.now = task.due
		}
		task.action()
	}
	if t.After(v.now) {
		v.now = t
	}
}

// AdvanceBy moves the clock forward by d, running due tasks on the way.
func (v *Virtual) AdvanceBy(d time.Duration) {
	v.AdvanceTo(v.now.Add(d))
}

// Run drains the queue, moving the clock to each task's due time. It does
// not return while a periodic action keeps rescheduling itself.
func (v *Virtual) Run() {
	for {
		due, ok := v.q.next()
		if !ok {
			return
		}
		if due.Before(v.now) {
			due = v.now
		}
		v.AdvanceTo(due)
	}
}

// Pending returns the number of queued tasks.
func (v *Virtual) Pending() int {
	return v.q.len()
}
