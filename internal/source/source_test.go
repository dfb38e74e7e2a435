package source

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func numbered(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line " + string(rune('a'+i))
	}
	return lines
}

func numbers(window []Line) []int {
	out := make([]int, len(window))
	for i, l := range window {
		out[i] = l.Number
	}
	return out
}

func TestWindow(t *testing.T) {
	lines := numbered(10)

	tests := []struct {
		name     string
		lines    []string
		center   int
		radius   int
		expected []int
	}{
		{"middle", lines, 5, 2, []int{3, 4, 5, 6, 7}},
		{"start", lines, 1, 3, []int{1, 2, 3, 4}},
		{"end", lines, 10, 3, []int{7, 8, 9, 10}},
		{"zero radius", lines, 4, 0, []int{4}},
		{"negative radius", lines, 4, -3, []int{4}},
		{"center past end", lines, 50, 2, []int{8, 9, 10}},
		{"center before start", lines, -5, 2, []int{1, 2, 3}},
		{"short file", numbered(3), 5, 2, []int{1, 2, 3}},
		{"empty", nil, 3, 2, []int{}},
		{"radius larger than file", numbered(3), 2, 100, []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := numbers(Window(tt.lines, tt.center, tt.radius))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Window(%d, %d) = %v, expected %v", tt.center, tt.radius, got, tt.expected)
			}
		})
	}
}

func TestWindowMarksCurrent(t *testing.T) {
	window := Window(numbered(5), 3, 1)
	for _, l := range window {
		if l.Current != (l.Number == 3) {
			t.Errorf("line %d Current = %v", l.Number, l.Current)
		}
	}
	if window[0].Text != "line b" {
		t.Errorf("Text = %q", window[0].Text)
	}
}

func TestSnippetHTML(t *testing.T) {
	s := &Snippet{Lines: []Line{
		{Number: 1, Text: `if a < b && c > "d" {`},
		{Number: 2, Text: "x", Current: true},
	}}
	got := s.HTML()

	if strings.Contains(got, `a < b`) {
		t.Errorf("HTML not escaped: %s", got)
	}
	if !strings.Contains(got, `if a &lt; b &amp;&amp; c &gt; &#34;d&#34; {`) {
		t.Errorf("HTML missing escaped line: %s", got)
	}
	if !strings.Contains(got, `<pre class="line current" data-line="2">x</pre>`) {
		t.Errorf("HTML missing current marker: %s", got)
	}
}

func TestSnippetText(t *testing.T) {
	s := &Snippet{Lines: []Line{
		{Number: 9, Text: "func f() {"},
		{Number: 10, Text: "\tpanic(1)", Current: true},
		{Number: 11, Text: "}"},
	}}
	expected := "   9  func f() {\n> 10  \tpanic(1)\n  11  }\n"
	if got := s.Text(); got != expected {
		t.Errorf("Text() = %q, expected %q", got, expected)
	}
}

func TestEmptySnippet(t *testing.T) {
	var s *Snippet
	if !s.Empty() || s.HTML() != "" || s.Text() != "" {
		t.Error("nil snippet should render empty")
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\n", []string{"a"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"a\n\nb", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		if got := SplitLines([]byte(tt.input)); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("SplitLines(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	return path
}

func TestContextReadsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "main.go", "a\nb\nc\nd\ne\n")

	s := Context(FileReader{}, path, 3, 1)
	if got := numbers(s.Lines); !reflect.DeepEqual(got, []int{2, 3, 4}) {
		t.Errorf("lines = %v", got)
	}
	if s.File != path || s.Line != 3 {
		t.Errorf("File/Line = %q/%d", s.File, s.Line)
	}
}

func TestContextUnreadableFile(t *testing.T) {
	s := Context(FileReader{}, filepath.Join(t.TempDir(), "missing.go"), 3, 2)
	if !s.Empty() {
		t.Errorf("expected empty snippet, got %v", s.Lines)
	}
}

type failingReader struct{}

func (failingReader) Lines(string) ([]string, error) { return nil, errors.New("archive") }

func TestExtractorAbsorbsReaderErrors(t *testing.T) {
	e := NewExtractor(failingReader{}, 2, nil)
	if s := e.Snippet("inside.zip/x.go", 1); !s.Empty() {
		t.Error("expected empty snippet")
	}
}

func TestExtractorDefaultRadius(t *testing.T) {
	if r := NewExtractor(nil, -1, nil).Radius(); r != DefaultRadius {
		t.Errorf("Radius() = %d, expected %d", r, DefaultRadius)
	}
}

type countingReader struct {
	calls int
	next  Reader
}

func (c *countingReader) Lines(path string) ([]string, error) {
	c.calls++
	return c.next.Lines(path)
}

func TestCachedReaderHits(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.go", "one\ntwo\n")
	counter := &countingReader{next: FileReader{}}

	c, err := NewCachedReader(WithNext(counter))
	if err != nil {
		t.Fatalf("NewCachedReader error = %v", err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		lines, err := c.Lines(path)
		if err != nil {
			t.Fatalf("Lines error = %v", err)
		}
		if !reflect.DeepEqual(lines, []string{"one", "two"}) {
			t.Errorf("Lines = %q", lines)
		}
	}
	if counter.calls != 1 {
		t.Errorf("underlying reader called %d times, expected 1", counter.calls)
	}
	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestCachedReaderInvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", "old\n")

	c, err := NewCachedReader()
	if err != nil {
		t.Fatalf("NewCachedReader error = %v", err)
	}
	defer c.Close()

	if lines, _ := c.Lines(path); !reflect.DeepEqual(lines, []string{"old"}) {
		t.Fatalf("initial Lines = %q", lines)
	}

	writeFile(t, dir, "a.go", "new\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		lines, err := c.Lines(path)
		if err != nil {
			t.Fatalf("Lines error = %v", err)
		}
		if reflect.DeepEqual(lines, []string{"new"}) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("cache was not invalidated after write")
}

// editingReader reads a file and then rewrites it, modelling a save that
// lands while the cache is filling.
type editingReader struct {
	once    bool
	content string
}

func (r *editingReader) Lines(path string) ([]string, error) {
	lines, err := FileReader{}.Lines(path)
	if err == nil && !r.once {
		r.once = true
		err = os.WriteFile(path, []byte(r.content), 0o644)
	}
	return lines, err
}

func TestCachedReaderSeesWriteDuringRead(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.go", "old\n")

	c, err := NewCachedReader(WithNext(&editingReader{content: "new\n"}))
	if err != nil {
		t.Fatalf("NewCachedReader error = %v", err)
	}
	defer c.Close()

	if lines, _ := c.Lines(path); !reflect.DeepEqual(lines, []string{"old"}) {
		t.Fatalf("first Lines = %q", lines)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if lines, _ := c.Lines(path); reflect.DeepEqual(lines, []string{"new"}) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("write made during the first read left stale lines cached")
}

func TestCachedReaderInvalidate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.go", "x\n")
	c, err := NewCachedReader()
	if err != nil {
		t.Fatalf("NewCachedReader error = %v", err)
	}
	defer c.Close()

	_, _ = c.Lines(path)
	c.Invalidate(path)
	if stats := c.Stats(); stats.Entries != 0 || stats.Invalidations != 1 {
		t.Errorf("Stats after Invalidate = %+v", stats)
	}
}

func TestCachedReaderClosed(t *testing.T) {
	c, err := NewCachedReader()
	if err != nil {
		t.Fatalf("NewCachedReader error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
	if _, err := c.Lines("x.go"); !errors.Is(err, ErrReaderClosed) {
		t.Errorf("Lines after Close error = %v, want ErrReaderClosed", err)
	}
}
