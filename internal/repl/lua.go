package repl

import (
	"errors"
	"html"
	"strings"
	"sync"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/postmortem/internal/capture"
	"github.com/dshills/postmortem/internal/inspect"
	"github.com/dshills/postmortem/internal/lua"
)

// Lua is the default provider. Each session owns a Lua state seeded with
// the frame's locals as globals and an "exception" table holding the
// failure's type and message. Globals assigned in one input are visible to
// later inputs.
type Lua struct{}

// Name returns "lua".
func (Lua) Name() string { return "lua" }

// New creates a session over b. c may be nil.
func (Lua) New(b capture.Binding, c *capture.Capture) (Session, error) {
	if b == nil {
		return nil, ErrNoBinding
	}

	state := lua.NewState()
	for _, v := range b.Variables() {
		state.SetGoGlobal(v.Name, v.Value)
	}
	if c != nil {
		state.SetGoGlobal("exception", map[string]any{
			"type":    c.Type,
			"message": c.Message,
		})
	}
	return &LuaSession{state: state}, nil
}

// LuaSession is a persistent Lua REPL session. SendInput calls are
// serialized.
type LuaSession struct {
	mu     sync.Mutex
	state  *lua.State
	buffer string
}

// SendInput evaluates code, joined to any buffered incomplete input.
// Incomplete input stays buffered in the session and the continuation
// prompt is returned; clients send only the next line, so nothing is
// prefilled.
func (s *LuaSession) SendInput(code string) (result, prompt, prefilled string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	input := code
	if s.buffer != "" {
		input = s.buffer + "\n" + code
	}

	values, err := s.state.Eval(input)
	output := html.EscapeString(s.state.TakeOutput())

	if errors.Is(err, lua.ErrIncompleteInput) {
		s.buffer = input
		return output, PromptContinue, ""
	}
	s.buffer = ""

	if err != nil {
		return output + errorResult(err.Error()), PromptPrimary, ""
	}
	return output + valueResult(s.render(values)), PromptPrimary, ""
}

// Close releases the Lua state.
func (s *LuaSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Close()
}

// render shows Lua values as Lua literals, and Go values that crossed into
// Lua as userdata with their Go text.
func (s *LuaSession) render(values []glua.LValue) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = "(exception was raised in inspect)"
		}
	}()

	if len(values) == 0 {
		return "nil"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		if ud, ok := v.(*glua.LUserData); ok {
			parts[i] = inspect.Text(ud.Value)
			continue
		}
		parts[i] = lua.Inspect(v)
	}
	return strings.Join(parts, ", ")
}
