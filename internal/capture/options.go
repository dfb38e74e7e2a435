package capture

import (
	"strings"
	"time"
)

// Option configures how a capture is built.
type Option func(*options)

type options struct {
	id       string
	skip     int
	root     string
	method   string
	path     string
	clock    func() time.Time
	bindings []functionBinding
}

type functionBinding struct {
	function string
	binding  Binding
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) now() time.Time {
	if o.clock != nil {
		return o.clock()
	}
	return time.Now()
}

// WithSkip drops n additional innermost frames from a collected backtrace.
func WithSkip(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.skip += n
		}
	}
}

// WithRoot sets the application root. Frames outside it are classified as
// library frames.
func WithRoot(root string) Option {
	return func(o *options) {
		o.root = root
	}
}

// WithRequest records the HTTP request that was being served.
func WithRequest(method, path string) Option {
	return func(o *options) {
		o.method = method
		o.path = path
	}
}

// WithBinding attaches b to the innermost frame whose function matches
// function. A match is either the full package-qualified name or a suffix
// following a '.' or '/', so "handleOrder", "orders.handleOrder" and
// "example.com/shop/orders.handleOrder" all match the same frame.
func WithBinding(function string, b Binding) Option {
	return func(o *options) {
		if function != "" && b != nil {
			o.bindings = append(o.bindings, functionBinding{function: function, binding: b})
		}
	}
}

// WithID overrides the generated capture id.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithClock overrides the capture timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func (o *options) attachBindings(frames []*Frame) {
	for _, fb := range o.bindings {
		for _, f := range frames {
			if f.Binding == nil && matchFunction(f.Function, fb.function) {
				f.Binding = fb.binding
				break
			}
		}
	}
}

func matchFunction(full, want string) bool {
	if full == want {
		return true
	}
	if !strings.HasSuffix(full, want) {
		return false
	}
	c := full[len(full)-len(want)-1]
	return c == '.' || c == '/'
}
