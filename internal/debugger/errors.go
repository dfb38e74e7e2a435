package debugger

import (
	"errors"
	"fmt"
)

// Debugger errors.
var (
	// ErrFrameIndex indicates a frame index outside the backtrace.
	ErrFrameIndex = errors.New("frame index out of range")

	// ErrCaptureNotFound indicates an unknown capture id.
	ErrCaptureNotFound = errors.New("capture not found")
)

// UnavailableMessage is the evaluation result for a frame without a
// binding.
const UnavailableMessage = "REPL unavailable in this stack frame"

// FrameIndexError reports a frame index outside [0, Frames).
type FrameIndexError struct {
	Index  int
	Frames int
}

func (e *FrameIndexError) Error() string {
	return fmt.Sprintf("frame index %d out of range [0, %d)", e.Index, e.Frames)
}

// Unwrap returns ErrFrameIndex.
func (e *FrameIndexError) Unwrap() error {
	return ErrFrameIndex
}

// IsFrameIndex reports whether err is a frame index error.
func IsFrameIndex(err error) bool {
	return errors.Is(err, ErrFrameIndex)
}
