package debugger

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"github.com/dshills/postmortem/internal/capture"
)

// Summary describes a capture without rendering any frame.
type Summary struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Message    string         `json:"message"`
	Method     string         `json:"method,omitempty"`
	Path       string         `json:"path,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	FirstFrame int            `json:"first_frame"`
	Sessions   int            `json:"sessions"`
	Frames     []FrameSummary `json:"frames"`
}

// FrameSummary is one backtrace entry of a Summary.
type FrameSummary struct {
	Index       int    `json:"index"`
	Location    string `json:"location"`
	Function    string `json:"function,omitempty"`
	Application bool   `json:"application"`
	HasBinding  bool   `json:"has_binding"`
}

// Summary returns the capture's identity and backtrace.
func (r *Registry) Summary() Summary {
	c := r.capture
	s := Summary{
		ID:         c.ID,
		Type:       c.Type,
		Message:    c.DisplayMessage(),
		Method:     c.Method,
		Path:       c.Path,
		CreatedAt:  c.CreatedAt,
		FirstFrame: capture.FirstDisplayIndex(c.Frames),
		Sessions:   r.SessionCount(),
		Frames:     make([]FrameSummary, len(c.Frames)),
	}
	for i, f := range c.Frames {
		_, hasBinding := f.EvaluationContext()
		s.Frames[i] = FrameSummary{
			Index:       i,
			Location:    fmt.Sprintf("%s:%d", f.PrettyPath(c.Root), f.Line),
			Function:    f.ShortFunction(),
			Application: f.IsApplication(),
			HasBinding:  hasBinding,
		}
	}
	return s
}

// Text renders the capture as a plain-text report: a heading, the
// message, the first display frame with its source, and the backtrace.
func (r *Registry) Text() string {
	c := r.capture
	var b strings.Builder

	b.WriteString(textHeading("=", c.Heading()))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "> %s\n", c.DisplayMessage())

	if i := capture.FirstDisplayIndex(c.Frames); i >= 0 {
		f := c.Frames[i]
		fmt.Fprintf(&b, "\n%s, line %d", f.PrettyPath(c.Root), f.Line)
		if f.Function != "" {
			fmt.Fprintf(&b, ", in %s", f.ShortFunction())
		}
		b.WriteString("\n")
		if code := r.extractor.Snippet(f.File, f.Line).Text(); code != "" {
			b.WriteString("\n```\n")
			b.WriteString(code)
			b.WriteString("```\n")
		}
	}

	if app := c.ApplicationFrames(); len(app) > 0 {
		b.WriteString("\n")
		b.WriteString(textHeading("-", "App backtrace"))
		b.WriteString("\n\n")
		for _, f := range app {
			fmt.Fprintf(&b, " - %s\n", r.frameLine(f.PrettyPath(c.Root), f.Line, f.ShortFunction()))
		}
	}

	b.WriteString("\n")
	b.WriteString(textHeading("-", "Full backtrace"))
	b.WriteString("\n\n")
	for _, f := range c.Frames {
		fmt.Fprintf(&b, " - %s\n", r.frameLine(f.PrettyPath(c.Root), f.Line, f.ShortFunction()))
	}
	return b.String()
}

func (r *Registry) frameLine(path string, line int, function string) string {
	if function == "" {
		return fmt.Sprintf("%s:%d", path, line)
	}
	return fmt.Sprintf("%s:%d in %s", path, line, function)
}

// textHeading underlines str with char to its display width.
func textHeading(char, str string) string {
	return str + "\n" + strings.Repeat(char, uniseg.StringWidth(str))
}
