package capture

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Capture is a single recorded failure.
type Capture struct {
	// ID uniquely identifies the capture; used as a URL path segment.
	ID string

	// Type is the Go type name of the failure, e.g. "*errors.errorString".
	Type string

	// Message is the failure's message as reported.
	Message string

	// Value is the recovered panic value or the error.
	Value any

	// Frames is the backtrace, innermost first.
	Frames []*Frame

	// Root is the application root used for classification and path
	// shortening.
	Root string

	// Method and Path describe the HTTP request being served, if any.
	Method string
	Path   string

	// CreatedAt is when the capture was recorded.
	CreatedAt time.Time
}

// New builds a capture from a failure value and an already collected
// backtrace. FromPanic and FromError are the usual entry points.
func New(value any, frames []*Frame, opts ...Option) *Capture {
	o := applyOptions(opts)
	c := &Capture{
		ID:        o.id,
		Type:      TypeName(value),
		Message:   Message(value),
		Value:     value,
		Frames:    frames,
		Root:      o.root,
		Method:    o.method,
		Path:      o.path,
		CreatedAt: o.now(),
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	o.attachBindings(frames)
	return c
}

// Frame returns the frame at index, or false if index is out of range.
func (c *Capture) Frame(index int) (*Frame, bool) {
	if index < 0 || index >= len(c.Frames) {
		return nil, false
	}
	return c.Frames[index], true
}

// FirstDisplayFrame returns the frame a debugger opens on.
func (c *Capture) FirstDisplayFrame() *Frame {
	return FirstDisplayFrame(c.Frames)
}

// ApplicationFrames returns the application frames in backtrace order.
func (c *Capture) ApplicationFrames() []*Frame {
	return ApplicationFrames(c.Frames)
}

// DisplayMessage is Message with leading whitespace removed.
func (c *Capture) DisplayMessage() string {
	return strings.TrimLeft(c.Message, " \t\r\n")
}

// Heading returns "Type at path", or just the type when there is no
// request path.
func (c *Capture) Heading() string {
	if c.Path == "" {
		return c.Type
	}
	return c.Type + " at " + c.Path
}

// TypeName returns the Go type of a failure value. Wrapped errors report the
// outermost type.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

// Message returns the human-readable message of a failure value.
func Message(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case error:
		return v.Error()
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// RootCause unwraps err to its innermost cause.
func RootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
