package inspect

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"reflect"
	"strings"

	"github.com/tidwall/pretty"
)

var prettyOptions = &pretty.Options{
	Width:    80,
	Indent:   "  ",
	SortKeys: true,
}

var literalReplacer = strings.NewReplacer(
	`":&nbsp;true`, `":&nbsp;<b><span class="literal">true</span></b>`,
	`":&nbsp;false`, `":&nbsp;<b><span class="literal">false</span></b>`,
	`":&nbsp;null`, `":&nbsp;<b><span class="literal">null</span></b>`,
)

// Structured renders v for the variables panel.
//
// A struct with exported fields renders those fields; otherwise a Mapper
// renders its InspectMap and a Go map renders its entries. Either form is
// shown as pretty-printed JSON with line breaks and spaces as HTML and
// literal true, false and null values emphasized. Anything else renders
// as its escaped default text.
func Structured(v any) string {
	return StructuredLimit(v, Unlimited)
}

// StructuredLimit is Structured with the size check Raw applies: when the
// escaped text or the pretty-printed document is longer than limit
// characters the too-large placeholder is returned instead.
func StructuredLimit(v any, limit int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = unsupported(exceptionText)
		}
	}()

	data, ok := structuredData(v)
	if !ok {
		text := html.EscapeString(Text(v))
		if exceeds(text, limit) {
			return tooLarge(v)
		}
		return text
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return encodeFailure(err)
	}
	doc := pretty.PrettyOptions(encoded, prettyOptions)
	if exceeds(string(doc), limit) {
		return tooLarge(v)
	}
	return markup(doc)
}

// structuredData extracts the data shown for v, or false when v has no
// structured shape.
func structuredData(v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		if fields, ok := exportedFields(rv); ok {
			return fields, true
		}
	}

	if m, ok := v.(Mapper); ok {
		return m.InspectMap(), true
	}

	if rv.Kind() == reflect.Map {
		return mapEntries(rv), true
	}
	return nil, false
}

// exportedFields collects the exported fields of a struct keyed by Go
// field name.
func exportedFields(rv reflect.Value) (map[string]any, bool) {
	t := rv.Type()
	fields := make(map[string]any)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fields[f.Name] = rv.Field(i).Interface()
	}
	return fields, len(fields) > 0
}

// mapEntries converts any Go map to one keyed by the keys' default text so
// that JSON can encode it regardless of key type.
func mapEntries(rv reflect.Value) map[string]any {
	entries := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key()
		var name string
		if key.Kind() == reflect.String {
			name = key.String()
		} else {
			name = fmt.Sprint(key.Interface())
		}
		entries[name] = iter.Value().Interface()
	}
	return entries
}

// encodeFailure maps a JSON encoding error onto a placeholder. Shapes JSON
// cannot represent are unsupported; failures of user marshalers are
// exceptions.
func encodeFailure(err error) string {
	var typeErr *json.UnsupportedTypeError
	var valueErr *json.UnsupportedValueError
	if errors.As(err, &typeErr) || errors.As(err, &valueErr) {
		return unsupported(unsupportedText)
	}
	return unsupported(exceptionText)
}

func markup(doc []byte) string {
	s := strings.TrimRight(string(doc), "\n")
	s = strings.ReplaceAll(s, "\n", "<br>")
	s = strings.ReplaceAll(s, " ", "&nbsp;")
	return literalReplacer.Replace(s)
}
