// Package source extracts the lines of code surrounding a frame's location.
//
// Window computes a clamped range of lines around a center line. Snippet
// renders that range as escaped HTML or as plain text with line numbers.
// Reading file contents goes through a Reader; FileReader reads from disk
// and CachedReader keeps split files in memory until the filesystem reports
// a change.
package source

// Line is one numbered line of a source window.
type Line struct {
	// Number is the 1-based line number.
	Number int

	// Text is the line without its trailing newline.
	Text string

	// Current marks the line the window is centered on.
	Current bool
}

// Window returns the lines within radius of center, clamped to the
// available lines. center is 1-based; a center outside the file is moved to
// the nearest line for windowing but no line is marked current. Empty input
// yields no lines.
func Window(lines []string, center, radius int) []Line {
	if len(lines) == 0 {
		return nil
	}
	if radius < 0 {
		radius = 0
	}

	anchor := min(max(center, 1), len(lines))
	first := max(anchor-radius, 1)
	last := min(anchor+radius, len(lines))

	window := make([]Line, 0, last-first+1)
	for n := first; n <= last; n++ {
		window = append(window, Line{
			Number:  n,
			Text:    lines[n-1],
			Current: n == center,
		})
	}
	return window
}
