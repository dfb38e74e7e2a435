// Package repl provides the evaluation sessions bound to stack frames.
//
// A Provider creates a Session for one frame's binding. The debugger keeps
// at most one session per frame and feeds it every input for that frame,
// so a stateful provider lets definitions persist between inputs.
package repl

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/postmortem/internal/capture"
)

// Prompts returned with each result.
const (
	// PromptPrimary is shown when the session is ready for new input.
	PromptPrimary = ">>"

	// PromptContinue is shown while an incomplete input is buffered.
	PromptContinue = ".."
)

// Errors returned by providers.
var (
	ErrNoBinding       = errors.New("frame has no binding")
	ErrUnknownProvider = errors.New("unknown repl provider")
)

// Session evaluates input in the context of one frame.
//
// SendInput returns the rendered result (HTML-escaped), the prompt to show
// next and any text the client should prefill in its input box. Sessions
// buffer incomplete input themselves, so clients send only new lines.
type Session interface {
	SendInput(code string) (result, prompt, prefilled string)
}

// Provider creates sessions.
type Provider interface {
	Name() string
	New(b capture.Binding, c *capture.Capture) (Session, error)
}

var providers = map[string]Provider{
	"basic": Basic{},
	"lua":   Lua{},
}

// Default returns the default provider.
func Default() Provider {
	return Lua{}
}

// Names returns the registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForName returns the provider registered as name. The empty name selects
// the default provider.
func ForName(name string) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Default(), nil
	}
	p, ok := providers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}
