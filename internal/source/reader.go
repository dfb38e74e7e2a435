package source

import (
	"bytes"
	"os"
	"strings"

	"github.com/dshills/postmortem/internal/logging"
)

// DefaultRadius is the number of lines shown on each side of the current
// line.
const DefaultRadius = 5

// Reader returns the lines of a source file.
type Reader interface {
	Lines(path string) ([]string, error)
}

// FileReader reads source files from disk on every call.
type FileReader struct{}

// Lines reads path and splits it into lines.
func (FileReader) Lines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return SplitLines(data), nil
}

// SplitLines splits file contents into lines, dropping line terminators.
// A trailing newline does not produce an extra empty line.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	parts := strings.Split(string(data), "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

// Extractor produces snippets with a fixed radius through a Reader,
// logging unreadable files at debug level.
type Extractor struct {
	reader Reader
	radius int
	logger *logging.Logger
}

// NewExtractor creates an extractor. A nil reader reads from disk; a
// negative radius uses DefaultRadius.
func NewExtractor(r Reader, radius int, logger *logging.Logger) *Extractor {
	if r == nil {
		r = FileReader{}
	}
	if radius < 0 {
		radius = DefaultRadius
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Extractor{reader: r, radius: radius, logger: logger.WithComponent("source")}
}

// Radius returns the number of context lines on each side.
func (e *Extractor) Radius() int {
	return e.radius
}

// Snippet returns the window around line in file. Failures to read the
// file produce an empty snippet.
func (e *Extractor) Snippet(file string, line int) *Snippet {
	s := &Snippet{File: file, Line: line}
	if file == "" {
		return s
	}
	lines, err := e.reader.Lines(file)
	if err != nil {
		e.logger.WithError(err).WithField("file", file).Debug("source unavailable")
		return s
	}
	s.Lines = Window(lines, line, e.radius)
	return s
}
