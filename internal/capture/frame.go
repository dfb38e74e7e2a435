package capture

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Frame is an immutable snapshot of one entry in a backtrace.
type Frame struct {
	// File is the source file of the frame.
	File string

	// Line is the 1-based line number, or zero if unknown.
	Line int

	// Function is the package-qualified function name. May be empty.
	Function string

	// Application is true for application code and false for standard
	// library, module cache and vendored code.
	Application bool

	// Binding is the frame's evaluation capability, nil when absent.
	Binding Binding
}

// IsApplication reports whether the frame belongs to application code.
func (f *Frame) IsApplication() bool {
	return f != nil && f.Application
}

// EvaluationContext returns the frame's binding. The second result is false
// when the frame has no live evaluation context.
func (f *Frame) EvaluationContext() (Binding, bool) {
	if f == nil || f.Binding == nil {
		return nil, false
	}
	return f.Binding, true
}

// Location returns "file:line".
func (f *Frame) Location() string {
	if f.File == "" {
		return fmt.Sprintf("<unknown>:%d", f.Line)
	}
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

// ShortFunction returns the function name without its package path,
// e.g. "orders.(*Service).Place" for "example.com/shop/orders.(*Service).Place".
func (f *Frame) ShortFunction() string {
	name := f.Function
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// PrettyPath returns the file relative to root for application frames, and
// the file unchanged otherwise.
func (f *Frame) PrettyPath(root string) string {
	if root == "" || !f.Application {
		return f.File
	}
	rel, err := filepath.Rel(root, f.File)
	if err != nil || strings.HasPrefix(rel, "..") {
		return f.File
	}
	return rel
}

// String returns "file:line in function".
func (f *Frame) String() string {
	if f.Function == "" {
		return f.Location()
	}
	return fmt.Sprintf("%s in %s", f.Location(), f.ShortFunction())
}

// FirstDisplayFrame returns the frame a debugger opens on: the first
// application frame, or the first frame when none qualify. Returns nil for
// an empty backtrace.
func FirstDisplayFrame(frames []*Frame) *Frame {
	i := FirstDisplayIndex(frames)
	if i < 0 {
		return nil
	}
	return frames[i]
}

// FirstDisplayIndex is FirstDisplayFrame's index form; -1 when frames is
// empty.
func FirstDisplayIndex(frames []*Frame) int {
	if len(frames) == 0 {
		return -1
	}
	for i, f := range frames {
		if f.IsApplication() {
			return i
		}
	}
	return 0
}

// ApplicationFrames returns the application frames in backtrace order.
func ApplicationFrames(frames []*Frame) []*Frame {
	var result []*Frame
	for _, f := range frames {
		if f.IsApplication() {
			result = append(result, f)
		}
	}
	return result
}

// IsLibraryPath reports whether file lives in the module cache or a vendor
// directory.
func IsLibraryPath(file string) bool {
	f := filepath.ToSlash(file)
	return strings.Contains(f, "/pkg/mod/") || strings.Contains(f, "/vendor/")
}

// goroot is the toolchain's source tree, empty when unknown.
var goroot = runtime.GOROOT()

// IsStdlibPath reports whether file lives under GOROOT/src.
func IsStdlibPath(file string) bool {
	if goroot == "" || file == "" {
		return false
	}
	return underDir(file, filepath.Join(goroot, "src"))
}

// IsStdlibFunction reports whether a package-qualified function name
// looks like standard library: its import path's first element has no dot
// and it is not package main. Modules named without a dot match too, so
// this is only a fallback for when no application root is known.
func IsStdlibFunction(function string) bool {
	if function == "" {
		return false
	}
	pkg := function
	if i := strings.IndexByte(pkg, '/'); i >= 0 {
		pkg = pkg[:i]
	} else if i := strings.IndexByte(pkg, '.'); i >= 0 {
		pkg = pkg[:i]
	}
	if pkg == "main" {
		return false
	}
	return !strings.Contains(pkg, ".")
}

// Classify decides whether a frame is application code given the
// application root. Module cache, vendor and GOROOT files never are. With
// a root, any other file under it is; without one, any file whose function
// does not look like standard library is.
func Classify(file, function, root string) bool {
	if file == "" || IsLibraryPath(file) || IsStdlibPath(file) {
		return false
	}
	if root != "" {
		return underDir(file, root)
	}
	return !IsStdlibFunction(function)
}

func underDir(file, dir string) bool {
	f := filepath.ToSlash(filepath.Clean(file))
	d := strings.TrimSuffix(filepath.ToSlash(filepath.Clean(dir)), "/")
	return f == d || strings.HasPrefix(f, d+"/")
}
