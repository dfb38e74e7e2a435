// Package editor builds URLs that open a source location in a local editor.
package editor

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownEditor is returned by ForName for a name that is neither a
// preset nor a template.
var ErrUnknownEditor = errors.New("unknown editor")

// Formatter turns a file and line into an editor link.
type Formatter interface {
	URL(file string, line int) string
}

// Template formats links from a pattern containing %{file} and %{line}.
// The file is URL-escaped, keeping path separators.
type Template string

// URL substitutes file and line into the template.
func (t Template) URL(file string, line int) string {
	return strings.NewReplacer(
		"%{file}", escapePath(file),
		"%{line}", strconv.Itoa(line),
	).Replace(string(t))
}

// None is a Formatter that produces no links.
type None struct{}

// URL returns "".
func (None) URL(string, int) string { return "" }

var presets = map[string]Template{
	"atom":     "atom://core/open/file?filename=%{file}&line=%{line}",
	"emacs":    "emacs://open?url=file://%{file}&line=%{line}",
	"idea":     "idea://open?file=%{file}&line=%{line}",
	"macvim":   "mvim://open?url=file://%{file}&line=%{line}",
	"sublime":  "subl://open?url=file://%{file}&line=%{line}",
	"textmate": "txmt://open?url=file://%{file}&line=%{line}",
	"vscode":   "vscode://file%{file}:%{line}",
}

var aliases = map[string]string{
	"code":        "vscode",
	"emacsclient": "emacs",
	"goland":      "idea",
	"mvim":        "macvim",
	"subl":        "sublime",
	"txmt":        "textmate",
}

// Presets returns the names of the built-in editors, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForName returns the formatter for a preset name, an alias of one, or a
// template containing %{file}. The empty name and "none" disable links.
func ForName(name string) (Formatter, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "none":
		return None{}, nil
	}
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	if t, ok := presets[key]; ok {
		return t, nil
	}
	if strings.Contains(name, "%{file}") {
		return Template(name), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEditor, name)
}

// escapePath URL-escapes each segment of a slash-separated path.
func escapePath(file string) string {
	segments := strings.Split(file, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
