package state

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/internal/logger"
	bolt "go.etcd.io/bbolt"
)

var checkpointBucket = []byte("checkpoints")

// BoltStore keeps checkpoints in a single bbolt file.
type BoltStore struct {
	open   atomic.Bool
	path   string
	logger zerolog.Logger
	db     *bolt.DB
}

// OpenBoltStore opens (or creates) dir/checkpoints.db.
func OpenBoltStore(dir string) (*BoltStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "checkpoints.db")

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(checkpointBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &BoltStore{
		path:   path,
		logger: logger.GetLogger("bolt-store"),
		db:     db,
	}
	s.open.Store(true)
	s.logger.Debug().Str("path", path).Msg("opened bolt store")
	return s, nil
}

// Put replaces the checkpoint blob of engineID.
func (s *BoltStore) Put(ctx context.Context, engineID string, blob []byte) error {
	if !s.open.Load() {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(checkpointBucket).Put(key(engineID), blob)
	})
}

// Get returns the checkpoint blob of engineID.
func (s *BoltStore) Get(ctx context.Context, engineID string) ([]byte, error) {
	if !s.open.Load() {
		return nil, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var val []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(checkpointBucket).Get(key(engineID))
		if v == nil {
			return ErrNotFound
		}
		// bolt values are only valid inside the transaction
		val = make([]byte, len(v))
		copy(val, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	if !s.open.CompareAndSwap(true, false) {
		return nil
	}
	return s.db.Close()
}
