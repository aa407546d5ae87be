package operator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarungka/ripple/internal/testutil"
	"github.com/tarungka/ripple/stream"
)

func lessThan(n int) Predicate {
	return func(v stream.Event) (bool, error) {
		return v.(int) < n, nil
	}
}

func numbers() *testutil.ColdObservable {
	return testutil.Cold(
		testutil.OnNext(10, 1),
		testutil.OnNext(20, 2),
		testutil.OnNext(30, 3),
		testutil.OnNext(40, 4),
		testutil.OnCompleted(50),
	)
}

func TestTakeWhile(t *testing.T) {
	source := numbers()
	got, _ := testutil.Run(TakeWhile(source, lessThan(3)), 0, 100)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(10, 1),
		testutil.OnNext(20, 2),
		testutil.OnCompleted(30),
	}, got)
	assert.Equal(t, []testutil.Span{{Start: 0, End: 30}}, source.Subscriptions())
}

func TestTakeWhile_AlwaysTrue(t *testing.T) {
	got, _ := testutil.Run(TakeWhile(numbers(), lessThan(100)), 0, 100)

	assert.Len(t, got, 5)
	assert.Equal(t, testutil.OnCompleted(50), got[4])
}

func TestTakeWhile_PredicateError(t *testing.T) {
	bad := errors.New("bad value")
	pred := func(v stream.Event) (bool, error) {
		if v.(int) == 2 {
			return false, bad
		}
		return true, nil
	}
	got, _ := testutil.Run(TakeWhile(numbers(), pred), 0, 100)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(10, 1),
		testutil.OnError(20, bad),
	}, got)
}

func TestTakeWhile_PredicatePanic(t *testing.T) {
	pred := func(v stream.Event) (bool, error) {
		if v.(int) == 3 {
			panic("unexpected")
		}
		return true, nil
	}
	got, _ := testutil.Run(TakeWhile(numbers(), pred), 0, 100)

	require.Len(t, got, 3)
	assert.Equal(t, stream.KindError, got[2].Kind)
	assert.Equal(t, int64(30), got[2].Time)
	assert.ErrorIs(t, got[2].Err, stream.ErrOperatorPanic)
}

func TestTakeWhile_DoneStateDoesNotResubscribe(t *testing.T) {
	source := numbers()
	got := newRecovery(t, TakeWhile(source, lessThan(2))).
		subscribeAt(0).
		checkpointAt(25).
		crashAt(25).
		recoverAt(100).
		run(500)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(10, 1),
		testutil.OnCompleted(20),
	}, got)
	assert.Len(t, source.Subscriptions(), 1)
}

func TestTakeWhile_ActiveStateResubscribes(t *testing.T) {
	source := numbers()
	got := newRecovery(t, TakeWhile(source, lessThan(3))).
		subscribeAt(0).
		checkpointAt(15).
		crashAt(15).
		recoverAt(100).
		run(500)

	assert.Equal(t, []testutil.Recorded{
		testutil.OnNext(10, 1),
		testutil.OnNext(110, 1),
		testutil.OnNext(120, 2),
		testutil.OnCompleted(130),
	}, got)
}
