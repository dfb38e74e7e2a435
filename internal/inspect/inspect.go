// Package inspect turns arbitrary Go values into bounded, HTML-safe text.
//
// Two renderings are offered. Structured shows a value's data as
// pretty-printed JSON markup when the value has a structured shape, and
// falls back to the default text otherwise. Raw shows the default text,
// replaced by a placeholder when it exceeds a size limit.
//
// Both are total: every input produces a string. Values that cannot be
// encoded, and user methods that panic or fail while being inspected,
// produce a placeholder naming the problem instead.
package inspect

import (
	"fmt"
	"reflect"
)

// Unlimited disables the Raw size limit.
const Unlimited = 0

// Placeholder texts.
const (
	unsupportedText = "(object doesn't support inspect)"
	exceptionText   = "(exception was raised in inspect)"
)

// Inspector is implemented by values that control their default text.
type Inspector interface {
	Inspect() string
}

// Mapper is implemented by values that expose their data as a map for
// structured rendering.
type Mapper interface {
	InspectMap() map[string]any
}

// Text returns the unescaped default text of v: Inspect() when v
// implements Inspector, otherwise the Go-syntax representation.
//
// Text propagates panics from Inspect; Structured and Raw recover them.
func Text(v any) string {
	if v == nil {
		return "nil"
	}
	if i, ok := v.(Inspector); ok {
		return i.Inspect()
	}
	if isCyclic(reflect.ValueOf(v)) {
		return fmt.Sprintf("%T{...}", v)
	}
	return fmt.Sprintf("%#v", v)
}

// TypeName returns the Go type of v, or "nil".
func TypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

func unsupported(text string) string {
	return "<span class='unsupported'>" + text + "</span>"
}
