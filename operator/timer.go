package operator

import (
	"time"

	"github.com/tarungka/ripple/stream"
)

// Timer emits 0 once after due and completes. The due time is computed when
// the subscription starts.
func Timer(due time.Duration) stream.Operator {
	return &timer{due: due}
}

// TimerAt emits 0 once at the absolute time at and completes.
func TimerAt(at time.Time) stream.Operator {
	return &timer{at: at, absolute: true}
}

// PeriodicTimer emits 0, 1, 2, ... starting after due and then every
// period. Ticks missed while the engine was down are emitted back-to-back
// on recovery, after which the cadence continues from the last period
// boundary.
func PeriodicTimer(due, period time.Duration) stream.Operator {
	return &timer{due: due, period: period}
}

// PeriodicTimerAt is PeriodicTimer with an absolute first due time.
func PeriodicTimerAt(at time.Time, period time.Duration) stream.Operator {
	return &timer{at: at, absolute: true, period: period}
}

type timer struct {
	due      time.Duration
	at       time.Time
	absolute bool
	period   time.Duration
}

func (o *timer) Kind() string {
	if o.period > 0 {
		return "PeriodicTimer"
	}
	return "Timer"
}

func (o *timer) Subscribe(rt *stream.Runtime, obs stream.Observer) stream.Subscription {
	return &timerSubscription{
		BaseSubscription: stream.NewBaseSubscription(rt, obs),
		def:              o,
	}
}

type timerSubscription struct {
	*stream.BaseSubscription
	def     *timer
	nextDue time.Time
	counter int64
	loaded  bool
}

func (s *timerSubscription) Start() {
	if !s.Activate() {
		return
	}
	if !s.loaded {
		if s.def.absolute {
			s.nextDue = s.def.at
		} else {
			due := s.def.due
			if due < 0 {
				due = 0
			}
			s.nextDue = s.Now().Add(due)
		}
	}

	if s.def.period <= 0 {
		if s.counter > 0 {
			// a one-shot timer that already fired only owes its completion
			s.Complete()
			return
		}
		s.Schedule(s.nextDue, s.fireOnce)
		return
	}

	if err := s.Periodic(s.nextDue, s.def.period, s.tick); err != nil {
		s.Fail(err)
	}
}

func (s *timerSubscription) fireOnce() {
	v := s.counter
	s.counter++
	s.Emit(v)
	s.Complete()
}

func (s *timerSubscription) tick(due time.Time) bool {
	v := s.counter
	s.counter++
	s.nextDue = due.Add(s.def.period)
	s.Emit(v)
	return !s.Disposed()
}

func (s *timerSubscription) StateName() string    { return timerState }
func (s *timerSubscription) StateVersion() uint32 { return timerStateVersion }

// SaveState records whether the timer was started. A timer behind a
// deferred input is still Created and has no due time yet; it computes one
// when it is finally started after recovery.
func (s *timerSubscription) SaveState(w *stream.StateWriter) error {
	started := s.Lifecycle() != stream.Created
	if err := w.Write(started); err != nil {
		return err
	}
	if !started {
		return nil
	}
	if err := w.WriteTime(s.nextDue); err != nil {
		return err
	}
	return w.Write(s.counter)
}

func (s *timerSubscription) LoadState(r *stream.StateReader) error {
	var started bool
	if err := r.Read(&started); err != nil {
		return err
	}
	if !started {
		return nil
	}
	due, err := r.ReadTime()
	if err != nil {
		return err
	}
	var counter int64
	if err := r.Read(&counter); err != nil {
		return err
	}
	if counter < 0 {
		return invalidState(timerState, "negative counter %d", counter)
	}
	s.nextDue = due
	s.counter = counter
	s.loaded = true
	return nil
}
