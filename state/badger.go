package state

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/tarungka/ripple/internal/logger"
)

// BadgerStore keeps checkpoints in a badger database. Each Put is a single
// read-write transaction.
type BadgerStore struct {
	open atomic.Bool

	dbPath string
	logger zerolog.Logger

	db *badger.DB
}

// OpenBadgerStore opens a file-based database at path, or an in-memory one
// when inMemory is set. An empty path opens /tmp/badger.
func OpenBadgerStore(path string, inMemory bool) (*BadgerStore, error) {
	s := &BadgerStore{
		dbPath: path,
		logger: logger.GetLogger("badger-store"),
	}

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if path == "" {
			path = "/tmp/badger"
			s.dbPath = path
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	s.db = db
	s.open.Store(true)
	s.logger.Debug().Str("path", s.dbPath).Bool("in_memory", inMemory).Msg("opened badger store")
	return s, nil
}

// Put replaces the checkpoint blob of engineID.
func (s *BadgerStore) Put(ctx context.Context, engineID string, blob []byte) error {
	if !s.open.Load() {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Trace().Str("engine", engineID).Int("bytes", len(blob)).Msg("writing checkpoint")
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(engineID), blob)
	})
	if err != nil {
		s.logger.Err(err).Str("engine", engineID).Msg("err writing checkpoint")
		return err
	}
	return nil
}

// Get returns the checkpoint blob of engineID.
func (s *BadgerStore) Get(ctx context.Context, engineID string) ([]byte, error) {
	if !s.open.Load() {
		return nil, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(engineID))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Err(err).Str("engine", engineID).Msg("err reading checkpoint")
		return nil, err
	}
	return val, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if !s.open.CompareAndSwap(true, false) {
		return nil
	}
	return s.db.Close()
}
