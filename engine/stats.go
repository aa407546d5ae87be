package engine

import "expvar"

const (
	numSubscriptions       = "subscriptions"
	numCheckpoints         = "checkpoints_ok"
	numCheckpointsFailed   = "checkpoints_failed"
	numRecoveries          = "recoveries"
	numRecoveryFailures    = "recovery_failures"
	lastCheckpointSequence = "last_checkpoint_sequence"
	lastCheckpointDuration = "last_checkpoint_duration_ms"
)

// stats captures stats for every engine in the process.
var stats *expvar.Map

func init() {
	stats = expvar.NewMap("engine")
	ResetStats()
}

// ResetStats resets the expvar stats for this module. Mostly for test purposes.
func ResetStats() {
	stats.Init()
	stats.Add(numSubscriptions, 0)
	stats.Add(numCheckpoints, 0)
	stats.Add(numCheckpointsFailed, 0)
	stats.Add(numRecoveries, 0)
	stats.Add(numRecoveryFailures, 0)
	stats.Add(lastCheckpointSequence, 0)
	stats.Add(lastCheckpointDuration, 0)
}

// Stat returns the current value of a counter, for tests and diagnostics.
func Stat(name string) int64 {
	v, ok := stats.Get(name).(*expvar.Int)
	if !ok {
		return 0
	}
	return v.Value()
}
