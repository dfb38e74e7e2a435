package capture

import (
	"fmt"
	"strings"

	"github.com/dshills/postmortem/internal/lua"
)

// Variable is a named local value captured from a frame.
type Variable struct {
	Name  string
	Value any
}

// Binding is the evaluation context of a single frame.
//
// Variables lists the captured locals in declaration order. Evaluate runs a
// source string against those locals and returns its Go value.
type Binding interface {
	Variables() []Variable
	Evaluate(code string) (any, error)
}

// LocalBinding is a Binding over a fixed set of captured locals.
// Evaluation runs each snippet in a fresh Lua state seeded with the locals as
// globals, so assignments do not persist between calls.
type LocalBinding struct {
	vars []Variable
}

// NewBinding creates a binding over vars. Later duplicates of a name
// replace earlier ones.
func NewBinding(vars ...Variable) *LocalBinding {
	b := &LocalBinding{}
	for _, v := range vars {
		b.set(v)
	}
	return b
}

// Locals builds a binding from alternating name/value pairs:
//
//	capture.Locals("user", user, "count", n)
//
// A non-string name is rendered with %v. A trailing name without a value
// binds to nil.
func Locals(kv ...any) *LocalBinding {
	b := &LocalBinding{}
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			name = fmt.Sprintf("%v", kv[i])
		}
		var value any
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		b.set(Variable{Name: name, Value: value})
	}
	return b
}

func (b *LocalBinding) set(v Variable) {
	for i := range b.vars {
		if b.vars[i].Name == v.Name {
			b.vars[i].Value = v.Value
			return
		}
	}
	b.vars = append(b.vars, v)
}

// Variables returns a copy of the captured locals.
func (b *LocalBinding) Variables() []Variable {
	out := make([]Variable, len(b.vars))
	copy(out, b.vars)
	return out
}

// Lookup returns the value bound to name.
func (b *LocalBinding) Lookup(name string) (any, bool) {
	for _, v := range b.vars {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// Evaluate runs code as a Lua expression or chunk with the locals in scope.
// A bare variable name returns the original Go value rather than its Lua
// conversion. Multiple results come back as []any.
func (b *LocalBinding) Evaluate(code string) (any, error) {
	if v, ok := b.Lookup(strings.TrimSpace(code)); ok {
		return v, nil
	}

	state := lua.NewState()
	defer state.Close()
	for _, v := range b.vars {
		state.SetGoGlobal(v.Name, v.Value)
	}

	values, err := state.Eval(code)
	if err != nil {
		return nil, err
	}
	bridge := state.Bridge()
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		return bridge.ToGoValue(values[0]), nil
	default:
		out := make([]any, len(values))
		for i, v := range values {
			out[i] = bridge.ToGoValue(v)
		}
		return out, nil
	}
}
