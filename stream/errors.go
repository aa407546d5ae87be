package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySequence is raised by operators that require at least one
	// element when their source completes without producing any.
	ErrEmptySequence = errors.New("sequence contains no elements")

	// ErrOperatorPanic wraps a panic raised by user code inside an operator,
	// such as a predicate or a selector.
	ErrOperatorPanic = errors.New("operator panicked")
)

// Safely runs fn and converts a panic into an error wrapping
// ErrOperatorPanic.
func Safely(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrOperatorPanic, p)
		}
	}()
	return fn()
}
