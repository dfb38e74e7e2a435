package source

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// Snippet is a rendered window of source around one line of a file.
type Snippet struct {
	File  string
	Line  int
	Lines []Line
}

// Empty reports whether the snippet has no lines, which is the case when
// the file could not be read.
func (s *Snippet) Empty() bool {
	return s == nil || len(s.Lines) == 0
}

// HTML renders the window with every line markup-escaped. The current line
// carries the "current" class.
//
//	<div class="code"><pre class="line" data-line="9">...</pre>...</div>
func (s *Snippet) HTML() string {
	if s.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div class="code">`)
	for _, l := range s.Lines {
		class := "line"
		if l.Current {
			class = "line current"
		}
		fmt.Fprintf(&b, `<pre class="%s" data-line="%d">%s</pre>`, class, l.Number, html.EscapeString(l.Text))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Text renders the window as plain text with right-aligned line numbers and
// a ">" marker on the current line.
//
//	   9  func place(o *Order) error {
//	> 10      return o.Submit()
//	  11  }
func (s *Snippet) Text() string {
	if s.Empty() {
		return ""
	}
	width := len(strconv.Itoa(s.Lines[len(s.Lines)-1].Number))
	var b strings.Builder
	for _, l := range s.Lines {
		marker := " "
		if l.Current {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %*d  %s\n", marker, width, l.Number, l.Text)
	}
	return b.String()
}

// Context reads file through r and returns the window of radius lines
// around line. An unreadable file yields an empty snippet.
func Context(r Reader, file string, line, radius int) *Snippet {
	return NewExtractor(r, radius, nil).Snippet(file, line)
}
