package repl

import (
	"fmt"
	"html"

	"github.com/dshills/postmortem/internal/capture"
	"github.com/dshills/postmortem/internal/inspect"
)

// Basic is a stateless provider: every input is passed to the frame's
// binding on its own.
type Basic struct{}

// Name returns "basic".
func (Basic) Name() string { return "basic" }

// New creates a session over b.
func (Basic) New(b capture.Binding, _ *capture.Capture) (Session, error) {
	if b == nil {
		return nil, ErrNoBinding
	}
	return &basicSession{binding: b}, nil
}

type basicSession struct {
	binding capture.Binding
}

func (s *basicSession) SendInput(code string) (result, prompt, prefilled string) {
	return evaluate(s.binding, code), PromptPrimary, ""
}

func evaluate(b capture.Binding, code string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = errorResult(fmt.Sprint(r))
		}
	}()

	v, err := b.Evaluate(code)
	if err != nil {
		return errorResult(err.Error())
	}
	return valueResult(inspect.Text(v))
}

func valueResult(text string) string {
	return "=> " + html.EscapeString(text)
}

func errorResult(msg string) string {
	return "!! " + html.EscapeString(msg)
}
