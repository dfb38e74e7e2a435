package inspect

import (
	"errors"
	"math"
	"strings"
	"testing"
)

type person struct {
	Name  string
	Admin bool
	Boss  *person
	age   int
}

type session struct {
	data map[string]any
}

func (s session) InspectMap() map[string]any { return s.data }

type hidden struct {
	x int
}

type withChan struct {
	C chan int
}

type withFunc struct {
	F func()
}

type panickyMapper struct{}

func (panickyMapper) InspectMap() map[string]any { panic("broken") }

type failingJSON struct {
	Value int
}

func (failingJSON) MarshalJSON() ([]byte, error) { return nil, errors.New("nope") }

type wrapper struct {
	Inner failingJSON
}

type custom struct{}

func (custom) Inspect() string { return "#<custom>" }

type panickyInspector struct{}

func (panickyInspector) Inspect() string { panic("boom") }

func TestStructuredStructFields(t *testing.T) {
	got := Structured(&person{Name: "ada", Admin: true, age: 36})
	expected := `{<br>` +
		`&nbsp;&nbsp;"Admin":&nbsp;<b><span class="literal">true</span></b>,<br>` +
		`&nbsp;&nbsp;"Boss":&nbsp;<b><span class="literal">null</span></b>,<br>` +
		`&nbsp;&nbsp;"Name":&nbsp;"ada"<br>` +
		`}`
	if got != expected {
		t.Errorf("Structured() =\n%s\nexpected\n%s", got, expected)
	}
	if strings.Contains(got, "age") {
		t.Error("unexported field rendered")
	}
}

func TestStructured(t *testing.T) {
	nan := map[string]float64{"x": math.NaN()}

	tests := []struct {
		name     string
		value    any
		contains string
	}{
		{"mapper", session{data: map[string]any{"user": "ada"}}, `"user":&nbsp;"ada"`},
		{"empty mapper", session{data: map[string]any{}}, "{}"},
		{"int keyed map", map[int]string{1: "a"}, `"1":&nbsp;"a"`},
		{"false literal", map[string]bool{"ok": false}, `"ok":&nbsp;<b><span class="literal">false</span></b>`},
		{"string", "a<b", `&#34;a&lt;b&#34;`},
		{"int", 42, "42"},
		{"nil", nil, "nil"},
		{"nil pointer", (*person)(nil), "(*inspect.person)(nil)"},
		{"no exported fields", hidden{x: 1}, "inspect.hidden{x:1}"},
		{"chan field", withChan{C: make(chan int)}, unsupportedText},
		{"func field", withFunc{F: func() {}}, unsupportedText},
		{"nan value", nan, unsupportedText},
		{"panicking mapper", panickyMapper{}, exceptionText},
		{"failing marshaler", wrapper{}, exceptionText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Structured(tt.value)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("Structured(%#v) = %s, expected to contain %s", tt.value, got, tt.contains)
			}
		})
	}
}

func TestStructuredPlaceholderMarkup(t *testing.T) {
	got := Structured(withChan{})
	expected := "<span class='unsupported'>(object doesn't support inspect)</span>"
	if got != expected {
		t.Errorf("Structured() = %s, expected %s", got, expected)
	}
}

func TestRaw(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		limit    int
		expected string
	}{
		{"escaped", "<b>", Unlimited, "&#34;&lt;b&gt;&#34;"},
		{"int", 7, 10, "7"},
		{"at limit", "abc", 13, "&#34;abc&#34;"},
		{"inspector", custom{}, Unlimited, "#&lt;custom&gt;"},
		{"nil", nil, Unlimited, "nil"},
		{"negative limit", strings.Repeat("x", 50), -1, `&#34;` + strings.Repeat("x", 50) + `&#34;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Raw(tt.value, tt.limit); got != tt.expected {
				t.Errorf("Raw() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestRawTooLarge(t *testing.T) {
	got := Raw(strings.Repeat("x", 100), 10)
	expected := "<span class='unsupported'>(object too large. Modify string's Inspect method or increase the max inspect size)</span>"
	if got != expected {
		t.Errorf("Raw() = %s, expected %s", got, expected)
	}
}

func TestRawTooLargeEscapesType(t *testing.T) {
	got := Raw(map[string]int{"a": 1, "b": 2}, 5)
	if !strings.Contains(got, "Modify map[string]int's Inspect method") {
		t.Errorf("Raw() = %s", got)
	}
}

func TestStructuredLimit(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		limit    int
		tooLarge bool
	}{
		{"short text", "abc", 10, false},
		{"long text", strings.Repeat("x", 1000), 10, true},
		{"long map", map[string]string{"k": strings.Repeat("v", 100)}, 20, true},
		{"small map", map[string]int{"a": 1}, 50, false},
		{"unlimited", strings.Repeat("x", 1000), Unlimited, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StructuredLimit(tt.value, tt.limit)
			if strings.Contains(got, "object too large") != tt.tooLarge {
				t.Errorf("StructuredLimit() = %.80s", got)
			}
			if tt.tooLarge && !strings.Contains(got, "Modify "+TypeName(tt.value)+"'s Inspect method") {
				t.Errorf("placeholder should name the type, got %s", got)
			}
		})
	}
}

func TestRawRecoversInspectorPanic(t *testing.T) {
	if got := Raw(panickyInspector{}, Unlimited); !strings.Contains(got, exceptionText) {
		t.Errorf("Raw() = %s", got)
	}
	if got := Structured(panickyInspector{}); !strings.Contains(got, exceptionText) {
		t.Errorf("Structured() = %s", got)
	}
}

func TestTextCyclic(t *testing.T) {
	m := map[string]any{}
	m["self"] = m
	if got := Text(m); got != "map[string]interface {}{...}" {
		t.Errorf("Text() = %s", got)
	}

	s := []any{nil}
	s[0] = s
	if got := Text(s); got != "[]interface {}{...}" {
		t.Errorf("Text() = %s", got)
	}
}

func TestTextSelfReferencingPointer(t *testing.T) {
	p := &person{Name: "loop"}
	p.Boss = p
	got := Text(p)
	if !strings.HasPrefix(got, `&inspect.person{Name:"loop"`) {
		t.Errorf("Text() = %s", got)
	}
}
