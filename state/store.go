// Package state provides the durable key-value store checkpoints are
// written to. Every implementation replaces the blob of an engine
// atomically: a reader sees either the previous checkpoint or the new one.
package state

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when no blob exists for an engine.
	ErrNotFound = errors.New("state: not found")

	// ErrStoreClosed is returned when a store is used after Close.
	ErrStoreClosed = errors.New("state: store closed")

	// ErrUnsupportedStore is returned by New for an unknown store type.
	ErrUnsupportedStore = errors.New("state: unsupported store type")
)

// Store persists one blob per engine id.
type Store interface {
	// Put atomically replaces the blob stored for engineID.
	Put(ctx context.Context, engineID string, blob []byte) error
	// Get returns the blob stored for engineID or ErrNotFound.
	Get(ctx context.Context, engineID string) ([]byte, error)
	// Close releases the store.
	Close() error
}

// Config selects and configures a Store.
type Config struct {
	// Type is one of "memory", "badger" or "bolt".
	Type string `koanf:"type"`
	// Dir is the data directory of file-backed stores.
	Dir string `koanf:"dir"`
	// InMemory runs badger without touching disk.
	InMemory bool `koanf:"in_memory"`
}

// New opens the store described by config.
func New(config Config) (Store, error) {
	switch config.Type {
	case "", "memory":
		return NewInMemoryStore(), nil
	case "badger":
		return OpenBadgerStore(config.Dir, config.InMemory)
	case "bolt":
		return OpenBoltStore(config.Dir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, config.Type)
	}
}

func key(engineID string) []byte {
	return []byte("checkpoint/" + engineID)
}
