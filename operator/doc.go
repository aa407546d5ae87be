// Package operator implements the query operators of the engine.
//
// Every operator is an immutable stream.Operator carrying only its captured
// parameters and upstream operators. Subscribing builds a subscription tree in
// the Created state; Start wires it. Stateful subscriptions implement
// stream.Stateful so that a checkpoint can capture them and recovery can load
// them between construction and Start.
//
// The time and value bounded family (TakeUntil, SkipUntil, TakeWhile,
// StartWith, Timer, PeriodicTimer, FirstAsync) are small state machines that
// move from active to completed or errored exactly once.
package operator

import (
	"errors"
	"fmt"
)

// Version 1 of every state layout below except the timer, whose layout
// gained a leading started flag in version 2.
const (
	stateVersion      uint32 = 1
	timerStateVersion uint32 = 2
)

// State names recorded in checkpoints.
const (
	takeUntilState  = "ripple/takeuntil"
	skipUntilState  = "ripple/skipuntil"
	takeWhileState  = "ripple/takewhile"
	startWithState  = "ripple/startwith"
	timerState      = "ripple/timer"
	firstAsyncState = "ripple/firstasync"
	takeState       = "ripple/take"
	skipState       = "ripple/skip"
	rangeState      = "ripple/range"
)

var (
	// ErrInvalidState is returned by LoadState when decoded state is out of
	// range for the operator's parameters.
	ErrInvalidState = errors.New("operator: invalid state")
)

func invalidState(name string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidState, name, fmt.Sprintf(format, args...))
}
