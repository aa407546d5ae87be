package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/internal/logger"
)

// DefaultCheckpointInterval is used when the engine config leaves the
// interval unset.
const DefaultCheckpointInterval = 30 * time.Second

// CheckpointCoordinator takes a checkpoint of an engine at a fixed interval.
// A failed checkpoint is logged and counted; the next tick simply tries
// again.
type CheckpointCoordinator struct {
	engine   *Engine
	interval time.Duration
	logger   zerolog.Logger
}

// NewCheckpointCoordinator creates a new CheckpointCoordinator.
func NewCheckpointCoordinator(e *Engine, interval time.Duration) *CheckpointCoordinator {
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}
	return &CheckpointCoordinator{
		engine:   e,
		interval: interval,
		logger:   logger.GetLogger("checkpoint-coordinator"),
	}
}

// Start runs the coordinator until ctx is cancelled. It must not run on the
// scheduler goroutine.
func (c *CheckpointCoordinator) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info().Dur("interval", c.interval).Msg("checkpoint coordinator started")
	for {
		select {
		case <-ticker.C:
			if _, err := c.engine.Checkpoint(ctx); err != nil {
				if errors.Is(err, ErrEngineClosed) {
					return err
				}
				c.logger.Warn().Err(err).Msg("periodic checkpoint failed")
			}
		case <-ctx.Done():
			c.logger.Info().Msg("checkpoint coordinator stopped")
			return nil
		}
	}
}
