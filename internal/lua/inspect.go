package lua

import (
	"sort"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Inspect renders a Lua value the way a Lua REPL echoes it: strings quoted,
// tables expanded with their array part first and remaining keys sorted.
// Self-referencing tables render as "{...}" at the point of recursion.
func Inspect(lv lua.LValue) string {
	var b strings.Builder
	inspect(&b, lv, make(map[*lua.LTable]bool))
	return b.String()
}

// InspectAll renders multiple return values separated by ", ".
// No values renders as "nil".
func InspectAll(values []lua.LValue) string {
	if len(values) == 0 {
		return "nil"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Inspect(v)
	}
	return strings.Join(parts, ", ")
}

func inspect(b *strings.Builder, lv lua.LValue, visited map[*lua.LTable]bool) {
	switch v := lv.(type) {
	case nil:
		b.WriteString("nil")
	case lua.LString:
		b.WriteString(strconv.Quote(string(v)))
	case *lua.LTable:
		inspectTable(b, v, visited)
	default:
		b.WriteString(lv.String())
	}
}

func inspectTable(b *strings.Builder, t *lua.LTable, visited map[*lua.LTable]bool) {
	if visited[t] {
		b.WriteString("{...}")
		return
	}
	visited[t] = true
	defer delete(visited, t)

	n := t.Len()
	type entry struct {
		sortKey string
		key     string
		value   lua.LValue
	}
	var rest []entry
	t.ForEach(func(k, v lua.LValue) {
		if kn, ok := k.(lua.LNumber); ok {
			i := int(kn)
			if float64(i) == float64(kn) && i >= 1 && i <= n {
				return
			}
		}
		rest = append(rest, entry{sortKey: k.String(), key: tableKey(k), value: v})
	})
	sort.Slice(rest, func(i, j int) bool { return rest[i].sortKey < rest[j].sortKey })

	b.WriteByte('{')
	first := true
	sep := func() {
		if !first {
			b.WriteString(", ")
		}
		first = false
	}
	for i := 1; i <= n; i++ {
		sep()
		inspect(b, t.RawGetInt(i), visited)
	}
	for _, e := range rest {
		sep()
		b.WriteString(e.key)
		b.WriteString(" = ")
		inspect(b, e.value, visited)
	}
	b.WriteByte('}')
}

// tableKey renders a table key as it would be written in a constructor.
func tableKey(k lua.LValue) string {
	if s, ok := k.(lua.LString); ok && isIdentifier(string(s)) {
		return string(s)
	}
	return "[" + Inspect(k) + "]"
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
