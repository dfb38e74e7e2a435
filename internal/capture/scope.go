package capture

import (
	"context"
	"sync"
)

type scopeKey struct{}

// Scope collects bindings registered while a request is served, so a
// recovering caller further up the stack can attach them to the capture.
// It is safe for concurrent use.
type Scope struct {
	mu       sync.Mutex
	bindings []functionBinding
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// WithScope returns a context carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the scope carried by ctx, if any.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok && s != nil
}

// Bind registers b for the frame of function in the scope carried by ctx.
// It reports false when ctx has no scope. Binding the same function again
// replaces the earlier binding, so a loop can rebind on every iteration.
func Bind(ctx context.Context, function string, b Binding) bool {
	s, ok := ScopeFrom(ctx)
	if !ok || function == "" || b == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bindings {
		if s.bindings[i].function == function {
			s.bindings[i].binding = b
			return true
		}
	}
	s.bindings = append(s.bindings, functionBinding{function: function, binding: b})
	return true
}

// BindLocals is Bind with Locals(kv...).
func BindLocals(ctx context.Context, function string, kv ...any) bool {
	return Bind(ctx, function, Locals(kv...))
}

// Options returns one WithBinding option per registered binding.
func (s *Scope) Options() []Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts := make([]Option, len(s.bindings))
	for i, fb := range s.bindings {
		opts[i] = WithBinding(fb.function, fb.binding)
	}
	return opts
}

// Len returns the number of registered bindings.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bindings)
}
