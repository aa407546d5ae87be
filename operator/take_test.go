package operator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tarungka/ripple/internal/testutil"
	"github.com/tarungka/ripple/stream"
)

func TestRange(t *testing.T) {
	got, _ := testutil.Run(Range(1, 3), 0, 100)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(1, int64(1)),
		testutil.OnNext(2, int64(2)),
		testutil.OnNext(3, int64(3)),
		testutil.OnCompleted(4),
	}, got)
}

func TestRange_Recovery(t *testing.T) {
	got := newRecovery(t, Range(0, 5)).
		subscribeAt(0).
		checkpointAt(3).
		crashAt(3).
		recoverAt(10).
		run(100)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(1, int64(0)),
		testutil.OnNext(2, int64(1)),
		testutil.OnNext(11, int64(2)),
		testutil.OnNext(12, int64(3)),
		testutil.OnNext(13, int64(4)),
		testutil.OnCompleted(14),
	}, got)
}

func TestTake(t *testing.T) {
	got, _ := testutil.Run(Take(Range(1, 10), 3), 0, 100)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(1, int64(1)),
		testutil.OnNext(2, int64(2)),
		testutil.OnNext(3, int64(3)),
		testutil.OnCompleted(3),
	}, got)
}

func TestTake_Zero(t *testing.T) {
	source := testutil.Cold(testutil.OnNext(10, 1))
	got, _ := testutil.Run(Take(source, 0), 7, 100)

	assert.Equal(t, []testutil.Recorded{testutil.OnCompleted(7)}, got)
	assert.Empty(t, source.Subscriptions())
}

func TestSkip(t *testing.T) {
	got, _ := testutil.Run(Skip(Range(1, 5), 2), 0, 100)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(3, int64(3)),
		testutil.OnNext(4, int64(4)),
		testutil.OnNext(5, int64(5)),
		testutil.OnCompleted(6),
	}, got)
}

func TestSkip_Recovery(t *testing.T) {
	source := testutil.Cold(
		testutil.OnNext(10, "a"),
		testutil.OnNext(20, "b"),
		testutil.OnNext(30, "c"),
		testutil.OnCompleted(40),
	)
	got := newRecovery(t, Skip(source, 2)).
		subscribeAt(0).
		checkpointAt(15).
		crashAt(15).
		recoverAt(100).
		run(500)

	// one value was skipped before the checkpoint, one is left to skip
	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(120, "b"),
		testutil.OnNext(130, "c"),
		testutil.OnCompleted(140),
	}, got)
}

func TestSelect(t *testing.T) {
	times10 := func(v stream.Event) (stream.Event, error) {
		return v.(int64) * 10, nil
	}
	got, _ := testutil.Run(Select(Range(1, 3), times10), 0, 100)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(1, int64(10)),
		testutil.OnNext(2, int64(20)),
		testutil.OnNext(3, int64(30)),
		testutil.OnCompleted(4),
	}, got)
}

func TestSelect_Error(t *testing.T) {
	bad := errors.New("bad")
	fn := func(v stream.Event) (stream.Event, error) {
		if v.(int64) == 2 {
			return nil, bad
		}
		return v, nil
	}
	got, _ := testutil.Run(Select(Range(1, 3), fn), 0, 100)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(1, int64(1)),
		testutil.OnError(2, bad),
	}, got)
}

func TestWhere(t *testing.T) {
	even := func(v stream.Event) (bool, error) {
		return v.(int64)%2 == 0, nil
	}
	got, _ := testutil.Run(Where(Range(1, 4), even), 0, 100)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(2, int64(2)),
		testutil.OnNext(4, int64(4)),
		testutil.OnCompleted(5),
	}, got)
}

func TestSources(t *testing.T) {
	boom := errors.New("boom")

	got, _ := testutil.Run(Return("x"), 10, 100)
	assert.Equal(t, []testutil.Recorded{testutil.OnNext(11, "x"), testutil.OnCompleted(11)}, got)

	got, _ = testutil.Run(Throw(boom), 10, 100)
	assert.Equal(t, []testutil.Recorded{testutil.OnError(11, boom)}, got)

	got, h := testutil.Run(Never(), 10, 100)
	assert.Empty(t, got)
	assert.Equal(t, stream.Subscribed, h.Sub.Lifecycle())
}
