// Package highlight renders REPL input as syntax-highlighted HTML.
package highlight

import (
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter converts source code into HTML markup.
type Highlighter interface {
	Highlight(code string) string
}

// Plain escapes code without highlighting it.
type Plain struct{}

// Highlight returns code HTML-escaped.
func (Plain) Highlight(code string) string {
	return html.EscapeString(code)
}

// Chroma highlights code with a chroma lexer, emitting class-based spans
// without a surrounding <pre>.
type Chroma struct {
	lexer     chroma.Lexer
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// NewChroma creates a highlighter for language. An unknown language falls
// back to chroma's plain-text lexer.
func NewChroma(language string) *Chroma {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return &Chroma{
		lexer: chroma.Coalesce(lexer),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
		style: styles.Get("github"),
	}
}

// Highlight returns code as highlighted HTML. Tokenizer or formatter
// failures fall back to escaped text.
func (c *Chroma) Highlight(code string) string {
	iter, err := c.lexer.Tokenise(nil, code)
	if err != nil {
		return Plain{}.Highlight(code)
	}
	var b strings.Builder
	if err := c.formatter.Format(&b, c.style, iter); err != nil {
		return Plain{}.Highlight(code)
	}
	return b.String()
}

// CSS returns the stylesheet for the classes Highlight emits.
func (c *Chroma) CSS() string {
	var b strings.Builder
	if err := c.formatter.WriteCSS(&b, c.style); err != nil {
		return ""
	}
	return b.String()
}
