package lua

import (
	"testing"

	glua "github.com/yuin/gopher-lua"
)

func TestInspect(t *testing.T) {
	L := glua.NewState()
	defer L.Close()

	nested := L.NewTable()
	nested.RawSetInt(1, glua.LNumber(1))
	nested.RawSetInt(2, glua.LString("two"))
	nested.RawSetString("name", glua.LString("x"))
	nested.RawSetString("with space", glua.LTrue)

	self := L.NewTable()
	self.RawSetString("me", self)

	tests := []struct {
		name     string
		input    glua.LValue
		expected string
	}{
		{"nil", glua.LNil, "nil"},
		{"bool", glua.LFalse, "false"},
		{"number", glua.LNumber(5), "5"},
		{"float", glua.LNumber(2.5), "2.5"},
		{"string", glua.LString(`a "b"`), `"a \"b\""`},
		{"empty table", L.NewTable(), "{}"},
		{"mixed table", nested, `{1, "two", name = "x", ["with space"] = true}`},
		{"self reference", self, "{me = {...}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Inspect(tt.input); got != tt.expected {
				t.Errorf("Inspect() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestInspectAllEmpty(t *testing.T) {
	if got := InspectAll(nil); got != "nil" {
		t.Errorf("InspectAll(nil) = %s, expected nil", got)
	}
}
