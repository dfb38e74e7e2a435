package capture

import (
	"runtime"
)

const maxDepth = 64

// FromPanic records a recovered panic value. Call it from the deferred
// function that called recover; frames belonging to the deferred function
// and the runtime's panic machinery are dropped so the backtrace starts at
// the panicking call.
func FromPanic(recovered any, opts ...Option) *Capture {
	o := applyOptions(opts)
	frames := collect(3, o)
	frames = trimPanic(frames)
	return New(recovered, frames, opts...)
}

// FromError records err with the backtrace of the caller.
func FromError(err error, opts ...Option) *Capture {
	o := applyOptions(opts)
	frames := collect(3, o)
	return New(err, frames, opts...)
}

// Callers collects the backtrace of its caller, innermost first, with
// skip additional frames dropped.
func Callers(skip int, root string) []*Frame {
	return collect(3+max(skip, 0), &options{root: root})
}

// collect gathers frames starting skip frames above runtime.Callers.
func collect(skip int, o *options) []*Frame {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+o.skip, pcs)
	if n == 0 {
		return nil
	}

	iter := runtime.CallersFrames(pcs[:n])
	var frames []*Frame
	for {
		rf, more := iter.Next()
		frames = append(frames, &Frame{
			File:        rf.File,
			Line:        rf.Line,
			Function:    rf.Function,
			Application: Classify(rf.File, rf.Function, o.root),
		})
		if !more {
			break
		}
	}
	return frames
}

// trimPanic drops everything up to and including runtime.gopanic, leaving
// the frame that panicked at index 0. Backtraces without a panic frame are
// returned unchanged.
func trimPanic(frames []*Frame) []*Frame {
	for i, f := range frames {
		if f.Function == "runtime.gopanic" {
			return frames[i+1:]
		}
	}
	return frames
}
