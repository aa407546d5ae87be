package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/codec"
	"github.com/tarungka/ripple/internal/logger"
	"github.com/tarungka/ripple/state"
	"github.com/tarungka/ripple/stream"
)

// CheckpointManager is responsible for creating and restoring checkpoints
// of one engine.
type CheckpointManager struct {
	engineID    string
	backend     state.Store
	codec       *codec.Codec
	compression CompressionType
	logger      zerolog.Logger

	sequence uint64
}

// Option configures a CheckpointManager.
type Option func(*CheckpointManager)

// WithCompression sets the compression applied to persisted blobs.
func WithCompression(t CompressionType) Option {
	return func(c *CheckpointManager) {
		c.compression = t
	}
}

// WithLogger replaces the default logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *CheckpointManager) {
		c.logger = l
	}
}

// NewCheckpointManager creates a new CheckpointManager persisting to backend.
func NewCheckpointManager(engineID string, backend state.Store, opts ...Option) *CheckpointManager {
	c := &CheckpointManager{
		engineID: engineID,
		backend:  backend,
		codec:    codec.New(),
		logger:   logger.GetLogger("checkpoint"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Codec returns the codec used for operator state.
func (c *CheckpointManager) Codec() *codec.Codec {
	return c.codec
}

// Sequence returns the sequence number of the last checkpoint written or
// restored.
func (c *CheckpointManager) Sequence() uint64 {
	return c.sequence
}

// Capture snapshots roots under the next sequence number without writing
// anything. It must run on the scheduler thread.
func (c *CheckpointManager) Capture(taken time.Time, roots map[string]stream.Subscription) (*Checkpoint, error) {
	return Capture(c.engineID, c.sequence+1, taken, roots, c.codec)
}

// Persist encodes cp and writes it to the backend.
func (c *CheckpointManager) Persist(ctx context.Context, cp *Checkpoint) error {
	blob, err := Encode(cp, c.compression, c.codec)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrCheckpointFailed, err)
	}
	if err := c.backend.Put(ctx, c.engineID, blob); err != nil {
		c.logger.Err(err).Str("id", cp.ID).Msg("failed to persist checkpoint")
		return fmt.Errorf("%w: write: %w", ErrCheckpointFailed, err)
	}
	c.sequence = cp.Sequence
	return nil
}

// LatestCheckpoint reads the last persisted checkpoint.
func (c *CheckpointManager) LatestCheckpoint(ctx context.Context) (*Checkpoint, error) {
	blob, err := c.backend.Get(ctx, c.engineID)
	if errors.Is(err, state.ErrNotFound) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, err
	}
	cp, err := Decode(blob, c.codec)
	if err != nil {
		return nil, err
	}
	if cp.EngineID != c.engineID {
		return nil, fmt.Errorf("%w: checkpoint belongs to engine %q", ErrCorruptState, cp.EngineID)
	}
	c.sequence = cp.Sequence
	return cp, nil
}

// RestoreCheckpoint loads the saved tree of uri into sub.
func (c *CheckpointManager) RestoreCheckpoint(cp *Checkpoint, uri string, sub stream.Subscription) error {
	tree, ok := cp.Queries[uri]
	if !ok {
		return fmt.Errorf("%w: %s not in checkpoint", ErrCorruptState, uri)
	}
	return LoadTree(tree, sub, c.codec)
}
