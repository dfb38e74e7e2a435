// Package lua wraps gopher-lua for evaluating expressions against captured
// stack-frame locals.
//
// # State
//
// A State is a Lua runtime with the standard libraries opened and print
// redirected into a buffer so REPL sessions can show output next to the
// result:
//
//	state := lua.NewState()
//	defer state.Close()
//
//	state.SetGlobal("user", state.Bridge().ToLuaValue(user))
//	values, err := state.Eval("user.name")
//
// Eval first tries the input as an expression ("return <input>") and falls
// back to running it as a statement block, so both "x = 5" and "x" work.
// Incomplete input (an unterminated block or string) is reported with
// ErrIncompleteInput so callers can keep buffering.
//
// Evaluated code runs with the same trust as the host process; there is no
// sandbox, instruction limit or timeout.
//
// # Bridge
//
// The Bridge converts values between Go and Lua:
//
//	bridge := state.Bridge()
//	lv := bridge.ToLuaValue(map[string]any{"id": 42})
//	gv := bridge.ToGoValue(lv)
package lua
