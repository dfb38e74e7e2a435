package lua

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// State wraps a gopher-lua LState for REPL-style evaluation.
//
// gopher-lua's LState is not goroutine-safe. Every method takes the state's
// mutex, so a State may be shared between request goroutines as long as
// nothing touches LuaState() directly.
type State struct {
	L *lua.LState

	mu     sync.Mutex
	bridge *Bridge
	output strings.Builder
	closed bool
}

// NewState creates a Lua state with the standard libraries opened and
// print redirected into the state's output buffer.
func NewState() *State {
	L := lua.NewState()
	s := &State{
		L:      L,
		bridge: NewBridge(L),
	}
	s.installPrint()
	return s
}

// installPrint replaces print with a version that writes into s.output.
func (s *State) installPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		for i := 1; i <= top; i++ {
			if i > 1 {
				s.output.WriteByte('\t')
			}
			s.output.WriteString(L.ToStringMeta(L.Get(i)).String())
		}
		s.output.WriteByte('\n')
		return 0
	}))
}

// Bridge returns the Go/Lua value bridge bound to this state.
func (s *State) Bridge() *Bridge {
	return s.bridge
}

// DoString executes a Lua chunk for its side effects.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	return s.doWithRecovery(func() error {
		return s.L.DoString(code)
	})
}

// Eval evaluates input and returns the values it produced.
//
// The input is compiled as "return <input>" first so bare expressions yield
// their value; if that does not parse it is compiled as a statement block,
// which yields no values. A block that ends prematurely returns
// ErrIncompleteInput.
func (s *State) Eval(input string) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fn, err := s.L.LoadString("return " + input)
	if err != nil {
		fn, err = s.L.LoadString(input)
		if err != nil {
			if isIncomplete(err) {
				return nil, ErrIncompleteInput
			}
			return nil, fmt.Errorf("syntax error: %s", errorMessage(err))
		}
	}

	return s.call(fn)
}

// call runs a compiled chunk and collects every value it returns.
func (s *State) call(fn *lua.LFunction) ([]lua.LValue, error) {
	top := s.L.GetTop()
	s.L.Push(fn)

	err := s.doWithRecovery(func() error {
		return s.L.PCall(0, lua.MultRet, nil)
	})
	if err != nil {
		s.L.SetTop(top)
		return nil, errors.New(errorMessage(err))
	}

	n := s.L.GetTop() - top
	if n <= 0 {
		return []lua.LValue{}, nil
	}
	values := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		values[i] = s.L.Get(top + i + 1)
	}
	s.L.Pop(n)
	return values, nil
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// TakeOutput returns everything printed since the last call and clears it.
func (s *State) TakeOutput() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.output.String()
	s.output.Reset()
	return out
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// SetGoGlobal converts value through the bridge and sets it as a global.
func (s *State) SetGoGlobal(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.bridge.ToLuaValue(value))
}

// LuaState returns the underlying gopher-lua state.
//
// Direct access bypasses the mutex; the caller is responsible for
// serializing use.
func (s *State) LuaState() *lua.LState {
	return s.L
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases all resources associated with the Lua state.
// After Close is called, all other methods return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.L.Close()
	s.closed = true
	return nil
}

// errorMessage extracts the Lua error value without the traceback.
func errorMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return strings.TrimSpace(apiErr.Object.String())
	}
	return strings.TrimSpace(err.Error())
}

// isIncomplete reports whether a compile error was caused by the chunk
// ending early rather than by invalid syntax.
func isIncomplete(err error) bool {
	msg := errorMessage(err)
	return strings.Contains(msg, "at EOF") ||
		strings.Contains(msg, "near 'EOF'") ||
		strings.Contains(msg, "<eof>")
}
