package checkpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tarungka/ripple/internal/logger"
	"github.com/tarungka/ripple/internal/testutil"
	"github.com/tarungka/ripple/operator"
	"github.com/tarungka/ripple/state"
	"github.com/tarungka/ripple/stream"
)

// MockStore is a mock implementation of the state.Store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, engineID string, blob []byte) error {
	return m.Called(ctx, engineID, blob).Error(0)
}

func (m *MockStore) Get(ctx context.Context, engineID string) ([]byte, error) {
	args := m.Called(ctx, engineID)
	blob, _ := args.Get(0).([]byte)
	return blob, args.Error(1)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

func TestCheckpointManager_CreateAndRestore(t *testing.T) {
	ctx := context.Background()
	store := state.NewInMemoryStore()
	m := NewCheckpointManager("engine-1", store,
		WithCompression(CompressionZSTD),
		WithLogger(logger.Nop()),
	)
	op := operator.Take(operator.Range(0, 10), 4)

	h := testutil.NewHarness(testutil.NewScheduler())
	h.SubscribeAt(0, op)
	h.Scheduler.AdvanceTo(testutil.At(2))

	cp, err := create(ctx, m, h.Scheduler.Now(), map[string]stream.Subscription{"rx://q": h.Sub})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cp.Sequence)
	assert.Equal(t, uint64(1), m.Sequence())

	reader := NewCheckpointManager("engine-1", store, WithLogger(logger.Nop()))
	latest, err := reader.LatestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, cp.ID, latest.ID)
	assert.Equal(t, uint64(1), reader.Sequence())

	restored := testutil.NewHarness(testutil.NewScheduler())
	sub := op.Subscribe(restored.Runtime(), restored.Recorder)
	require.NoError(t, reader.RestoreCheckpoint(latest, "rx://q", sub))
	sub.Start()
	restored.Scheduler.Run()
	assert.Equal(t, []stream.Event{int64(2), int64(3)}, restored.Recorder.Values())

	err = reader.RestoreCheckpoint(latest, "rx://missing", sub)
	assert.ErrorIs(t, err, ErrCorruptState)
}

// create captures and persists roots the way the engine does, minus the
// scheduler hop.
func create(ctx context.Context, m *CheckpointManager, taken time.Time, roots map[string]stream.Subscription) (*Checkpoint, error) {
	cp, err := m.Capture(taken, roots)
	if err != nil {
		return nil, err
	}
	if err := m.Persist(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

func TestCheckpointManager_SequenceAdvances(t *testing.T) {
	ctx := context.Background()
	m := NewCheckpointManager("engine-1", state.NewInMemoryStore(), WithLogger(logger.Nop()))

	for i := 1; i <= 3; i++ {
		cp, err := create(ctx, m, testutil.At(int64(i)), map[string]stream.Subscription{})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), cp.Sequence)
	}
	latest, err := m.LatestCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), latest.Sequence)
	assert.Empty(t, latest.Queries)
}

func TestCheckpointManager_NoCheckpoint(t *testing.T) {
	m := NewCheckpointManager("engine-1", state.NewInMemoryStore(), WithLogger(logger.Nop()))

	_, err := m.LatestCheckpoint(context.Background())
	assert.ErrorIs(t, err, ErrNoCheckpoint)
}

func TestCheckpointManager_WriteFailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	store := new(MockStore)
	unavailable := errors.New("store unavailable")
	store.On("Put", mock.Anything, "engine-1", mock.Anything).Return(nil).Once()
	store.On("Put", mock.Anything, "engine-1", mock.Anything).Return(unavailable).Once()

	m := NewCheckpointManager("engine-1", store, WithLogger(logger.Nop()))
	_, err := create(ctx, m, testutil.At(1), map[string]stream.Subscription{})
	require.NoError(t, err)

	_, err = create(ctx, m, testutil.At(2), map[string]stream.Subscription{})
	assert.ErrorIs(t, err, ErrCheckpointFailed)
	assert.ErrorIs(t, err, unavailable)
	assert.Equal(t, uint64(1), m.Sequence(), "sequence only advances on a successful write")

	store.AssertExpectations(t)
}

func TestCheckpointManager_ForeignEngine(t *testing.T) {
	ctx := context.Background()
	store := state.NewInMemoryStore()
	writer := NewCheckpointManager("engine-a", store, WithLogger(logger.Nop()))
	cp, err := Capture("engine-a", 1, testutil.Epoch, nil, writer.Codec())
	require.NoError(t, err)
	blob, err := Encode(cp, CompressionNone, writer.Codec())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "engine-b", blob))

	reader := NewCheckpointManager("engine-b", store, WithLogger(logger.Nop()))
	_, err = reader.LatestCheckpoint(ctx)
	assert.ErrorIs(t, err, ErrCorruptState)
}

func TestCheckpointManager_ReadError(t *testing.T) {
	store := new(MockStore)
	broken := errors.New("io error")
	store.On("Get", mock.Anything, "engine-1").Return(nil, broken)

	m := NewCheckpointManager("engine-1", store, WithLogger(logger.Nop()))
	_, err := m.LatestCheckpoint(context.Background())
	assert.ErrorIs(t, err, broken)
	store.AssertExpectations(t)
}
