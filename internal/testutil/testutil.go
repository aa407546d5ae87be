// Package testutil provides a virtual-time harness for operator and engine
// tests: tick helpers, recording observers and cold/hot test sources.
package testutil

import (
	"fmt"
	"time"

	"github.com/tarungka/ripple/scheduler"
	"github.com/tarungka/ripple/stream"
)

// Epoch is tick zero of every test clock.
var Epoch = time.Unix(0, 0).UTC()

// At converts a tick count to a virtual instant. One tick is one scheduler
// quantum.
func At(ticks int64) time.Time {
	return Epoch.Add(time.Duration(ticks))
}

// Ticks converts a virtual instant back to ticks.
func Ticks(t time.Time) int64 {
	return int64(t.Sub(Epoch))
}

// NewScheduler returns a virtual scheduler at tick zero.
func NewScheduler() *scheduler.Virtual {
	return scheduler.NewVirtual(Epoch)
}

// Recorded is a notification stamped with the tick it was observed at.
type Recorded struct {
	Time int64
	stream.Notification
}

func (r Recorded) String() string {
	return fmt.Sprintf("%d:%s", r.Time, r.Notification)
}

// OnNext records value at tick t.
func OnNext(t int64, value stream.Event) Recorded {
	return Recorded{Time: t, Notification: stream.Next(value)}
}

// OnError records err at tick t.
func OnError(t int64, err error) Recorded {
	return Recorded{Time: t, Notification: stream.Error(err)}
}

// OnCompleted records completion at tick t.
func OnCompleted(t int64) Recorded {
	return Recorded{Time: t, Notification: stream.Completed()}
}

// Recorder is an observer that stamps every notification with the
// scheduler clock.
type Recorder struct {
	clock    scheduler.Scheduler
	messages []Recorded
}

// NewRecorder creates a recorder reading time from s.
func NewRecorder(s scheduler.Scheduler) *Recorder {
	return &Recorder{clock: s}
}

func (r *Recorder) OnNext(value stream.Event) {
	r.record(stream.Next(value))
}

func (r *Recorder) OnError(err error) {
	r.record(stream.Error(err))
}

func (r *Recorder) OnCompleted() {
	r.record(stream.Completed())
}

func (r *Recorder) record(n stream.Notification) {
	r.messages = append(r.messages, Recorded{Time: Ticks(r.clock.Now()), Notification: n})
}

// Messages returns everything recorded so far.
func (r *Recorder) Messages() []Recorded {
	out := make([]Recorded, len(r.messages))
	copy(out, r.messages)
	return out
}

// Since returns the messages recorded at or after tick t.
func (r *Recorder) Since(t int64) []Recorded {
	var out []Recorded
	for _, m := range r.messages {
		if m.Time >= t {
			out = append(out, m)
		}
	}
	return out
}

// Values returns the OnNext payloads in order.
func (r *Recorder) Values() []stream.Event {
	var out []stream.Event
	for _, m := range r.messages {
		if m.Kind == stream.KindNext {
			out = append(out, m.Value)
		}
	}
	return out
}

// Span records when a test source was subscribed and disposed. End is -1
// while the subscription is live.
type Span struct {
	Start int64
	End   int64
}

func scheduleOffset(ticks int64) time.Duration {
	return time.Duration(ticks)
}
