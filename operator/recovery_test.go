package operator

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tarungka/ripple/checkpoint"
	"github.com/tarungka/ripple/codec"
	"github.com/tarungka/ripple/internal/testutil"
	"github.com/tarungka/ripple/stream"
)

// recovery drives one operator through subscribe, checkpoint, crash and
// recover on a virtual clock. A crash disposes the live tree without
// emitting anything; recovery builds a fresh tree, loads the saved state
// into it and starts it.
type recovery struct {
	t     *testing.T
	h     *testutil.Harness
	op    stream.Operator
	codec *codec.Codec
	saved *checkpoint.OperatorState
}

func newRecovery(t *testing.T, op stream.Operator) *recovery {
	return &recovery{
		t:     t,
		h:     testutil.NewHarness(testutil.NewScheduler()),
		op:    op,
		codec: codec.New(),
	}
}

func (r *recovery) subscribeAt(tick int64) *recovery {
	r.h.SubscribeAt(tick, r.op)
	return r
}

func (r *recovery) checkpointAt(tick int64) *recovery {
	r.h.At(tick, func() {
		st, err := checkpoint.SaveTree(r.h.Sub, r.codec)
		require.NoError(r.t, err)
		r.saved = st
	})
	return r
}

func (r *recovery) crashAt(tick int64) *recovery {
	r.h.DisposeAt(tick)
	return r
}

func (r *recovery) recoverAt(tick int64) *recovery {
	r.h.At(tick, func() {
		require.NotNil(r.t, r.saved, "no checkpoint taken before recovery")
		sub := r.op.Subscribe(r.h.Runtime(), r.h.Recorder)
		require.NoError(r.t, checkpoint.LoadTree(r.saved, sub, r.codec))
		r.h.Sub = sub
		sub.Start()
	})
	return r
}

func (r *recovery) run(until int64) []testutil.Recorded {
	r.h.Scheduler.AdvanceTo(testutil.At(until))
	return r.h.Recorder.Messages()
}
