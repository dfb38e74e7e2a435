package editor

import (
	"errors"
	"testing"
)

func TestForNamePresets(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"vscode", "vscode://file/src/app/main.go:12"},
		{"code", "vscode://file/src/app/main.go:12"},
		{"Sublime", "subl://open?url=file:///src/app/main.go&line=12"},
		{"textmate", "txmt://open?url=file:///src/app/main.go&line=12"},
		{"macvim", "mvim://open?url=file:///src/app/main.go&line=12"},
		{"emacs", "emacs://open?url=file:///src/app/main.go&line=12"},
		{"idea", "idea://open?file=/src/app/main.go&line=12"},
		{"atom", "atom://core/open/file?filename=/src/app/main.go&line=12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ForName(tt.name)
			if err != nil {
				t.Fatalf("ForName(%q) error = %v", tt.name, err)
			}
			if got := f.URL("/src/app/main.go", 12); got != tt.expected {
				t.Errorf("URL() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestForNameTemplate(t *testing.T) {
	f, err := ForName("myeditor://%{file}#L%{line}")
	if err != nil {
		t.Fatalf("ForName error = %v", err)
	}
	if got := f.URL("/src/my app/x.go", 3); got != "myeditor:///src/my%20app/x.go#L3" {
		t.Errorf("URL() = %q", got)
	}
}

func TestForNameNone(t *testing.T) {
	for _, name := range []string{"", "none"} {
		f, err := ForName(name)
		if err != nil {
			t.Fatalf("ForName(%q) error = %v", name, err)
		}
		if got := f.URL("/x.go", 1); got != "" {
			t.Errorf("URL() = %q, expected empty", got)
		}
	}
}

func TestForNameUnknown(t *testing.T) {
	if _, err := ForName("notepad"); !errors.Is(err, ErrUnknownEditor) {
		t.Errorf("ForName error = %v, want ErrUnknownEditor", err)
	}
}

func TestPresets(t *testing.T) {
	names := Presets()
	if len(names) != 7 || names[0] != "atom" || names[len(names)-1] != "vscode" {
		t.Errorf("Presets() = %v", names)
	}
}
