// Package checkpoint captures the state of live subscription trees and
// restores it into freshly built trees of the same shape.
package checkpoint

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tarungka/ripple/codec"
	"github.com/tarungka/ripple/stream"
)

var (
	// ErrCheckpointFailed wraps any failure while capturing or persisting a
	// checkpoint. A failed checkpoint leaves the previous one in place.
	ErrCheckpointFailed = errors.New("checkpoint failed")

	// ErrIncompatibleVersion is returned when saved state was written by a
	// different version of an operator.
	ErrIncompatibleVersion = errors.New("incompatible operator state version")

	// ErrCorruptState is returned when saved state does not match the tree it
	// is loaded into, or cannot be decoded.
	ErrCorruptState = errors.New("corrupt operator state")

	// ErrNoCheckpoint is returned when no checkpoint exists for an engine.
	ErrNoCheckpoint = errors.New("no checkpoint")
)

// OperatorState is the saved state of one subscription and its inputs.
// Name is empty for subscriptions that carry no state.
type OperatorState struct {
	Name    string
	Version uint32
	Data    []byte
	Inputs  []*OperatorState
}

// Checkpoint is a consistent snapshot of every root subscription of an
// engine, keyed by subscription URI.
type Checkpoint struct {
	ID       string
	EngineID string
	Sequence uint64
	// Taken is the scheduler time of the checkpoint in unix nanoseconds.
	Taken   int64
	Queries map[string]*OperatorState
}

// TakenAt returns Taken as a time.
func (c *Checkpoint) TakenAt() time.Time {
	return time.Unix(0, c.Taken).UTC()
}

// URIs returns the checkpointed subscription URIs in sorted order.
func (c *Checkpoint) URIs() []string {
	uris := make([]string, 0, len(c.Queries))
	for uri := range c.Queries {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Capture saves the state of every root in roots. It must run on the
// scheduler thread so that no callback observes a partial snapshot. Any
// failure aborts the whole checkpoint.
func Capture(engineID string, sequence uint64, taken time.Time, roots map[string]stream.Subscription, c *codec.Codec) (*Checkpoint, error) {
	cp := &Checkpoint{
		ID:       uuid.NewString(),
		EngineID: engineID,
		Sequence: sequence,
		Taken:    taken.UnixNano(),
		Queries:  make(map[string]*OperatorState, len(roots)),
	}
	for uri, root := range roots {
		tree, err := SaveTree(root, c)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCheckpointFailed, uri, err)
		}
		cp.Queries[uri] = tree
	}
	return cp, nil
}

// SaveTree saves sub and its inputs in pre-order.
func SaveTree(sub stream.Subscription, c *codec.Codec) (*OperatorState, error) {
	node := &OperatorState{}
	if st, ok := sub.(stream.Stateful); ok {
		buf := new(bytes.Buffer)
		err := stream.Safely(func() error {
			return st.SaveState(stream.NewStateWriter(buf, c))
		})
		if err != nil {
			return nil, fmt.Errorf("save %s: %w", st.StateName(), err)
		}
		node.Name = st.StateName()
		node.Version = st.StateVersion()
		node.Data = buf.Bytes()
	}

	for _, in := range sub.Inputs() {
		child, err := SaveTree(in, c)
		if err != nil {
			return nil, err
		}
		node.Inputs = append(node.Inputs, child)
	}
	return node, nil
}

// LoadTree loads node into sub and its inputs. sub must have been built by
// the same operator expression that produced node and must not be started.
func LoadTree(node *OperatorState, sub stream.Subscription, c *codec.Codec) error {
	if node == nil {
		return fmt.Errorf("%w: missing node", ErrCorruptState)
	}

	st, ok := sub.(stream.Stateful)
	switch {
	case ok && node.Name != st.StateName():
		return fmt.Errorf("%w: expected %s, found %q", ErrCorruptState, st.StateName(), node.Name)
	case !ok && node.Name != "":
		return fmt.Errorf("%w: unexpected state %s", ErrCorruptState, node.Name)
	case ok:
		if node.Version != st.StateVersion() {
			return fmt.Errorf("%w: %s saved at version %d, running %d",
				ErrIncompatibleVersion, node.Name, node.Version, st.StateVersion())
		}
		err := stream.Safely(func() error {
			return st.LoadState(stream.NewStateReader(bytes.NewReader(node.Data), c, node.Version))
		})
		if err != nil {
			return fmt.Errorf("%w: load %s: %w", ErrCorruptState, node.Name, err)
		}
	}

	inputs := sub.Inputs()
	if len(inputs) != len(node.Inputs) {
		return fmt.Errorf("%w: expected %d inputs, found %d", ErrCorruptState, len(inputs), len(node.Inputs))
	}
	for i, in := range inputs {
		if err := LoadTree(node.Inputs[i], in, c); err != nil {
			return err
		}
	}
	return nil
}
