package engine

import "errors"

var (
	// ErrUnknownQuery is returned when a URI has no definition in the
	// catalog.
	ErrUnknownQuery = errors.New("engine: unknown query")

	// ErrDuplicateQuery is returned when a URI is registered twice.
	ErrDuplicateQuery = errors.New("engine: query already registered")

	// ErrInvalidDefinition is returned for a definition without an operator.
	ErrInvalidDefinition = errors.New("engine: definition has no operator")

	// ErrAlreadySubscribed is returned when a URI already has a live root.
	ErrAlreadySubscribed = errors.New("engine: already subscribed")

	// ErrNotSubscribed is returned when a URI has no root to dispose.
	ErrNotSubscribed = errors.New("engine: not subscribed")

	// ErrEngineClosed is returned by every operation after Close.
	ErrEngineClosed = errors.New("engine: closed")
)
