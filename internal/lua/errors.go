package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrIncompleteInput is returned when a chunk ends before its block,
	// string or expression is complete.
	ErrIncompleteInput = errors.New("lua input is incomplete")
)
