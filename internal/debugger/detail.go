package debugger

import (
	"time"

	"github.com/dshills/postmortem/internal/capture"
	"github.com/dshills/postmortem/internal/inspect"
)

// FrameDetail is everything shown for one frame.
type FrameDetail struct {
	Index         int    `json:"index"`
	Function      string `json:"function"`
	File          string `json:"file"`
	Line          int    `json:"line"`
	PrettyPath    string `json:"pretty_path"`
	EditorURL     string `json:"editor_url,omitempty"`
	Application   bool   `json:"application"`
	REPLAvailable bool   `json:"repl_available"`

	SourceHTML string `json:"source_html"`
	SourceText string `json:"source_text"`

	Variables []VariableDetail `json:"variables"`

	InspectedAt time.Time     `json:"inspected_at"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

// VariableDetail is one rendered local.
type VariableDetail struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Raw        string `json:"raw"`
	Structured string `json:"structured"`
}

// Inspect renders the frame at index: its location, editor link, source
// window and variables. It never creates a REPL session.
func (r *Registry) Inspect(index int) (*FrameDetail, error) {
	f, err := r.frame(index)
	if err != nil {
		return nil, err
	}

	timer := StartTimer()
	snippet := r.extractor.Snippet(f.File, f.Line)
	b, hasBinding := f.EvaluationContext()

	detail := &FrameDetail{
		Index:         index,
		Function:      f.ShortFunction(),
		File:          f.File,
		Line:          f.Line,
		PrettyPath:    f.PrettyPath(r.capture.Root),
		EditorURL:     r.editor.URL(f.File, f.Line),
		Application:   f.IsApplication(),
		REPLAvailable: hasBinding,
		SourceHTML:    snippet.HTML(),
		SourceText:    snippet.Text(),
		Variables:     []VariableDetail{},
		InspectedAt:   timer.Started(),
	}
	if hasBinding {
		detail.Variables = r.variables(b)
	}

	detail.Elapsed = timer.Elapsed()
	r.metrics.RecordInspect(detail.Elapsed)
	return detail, nil
}

func (r *Registry) variables(b capture.Binding) []VariableDetail {
	vars := b.Variables()
	details := make([]VariableDetail, len(vars))
	for i, v := range vars {
		details[i] = VariableDetail{
			Name:       v.Name,
			Type:       inspect.TypeName(v.Value),
			Raw:        inspect.Raw(v.Value, r.maxInspectSize),
			Structured: inspect.StructuredLimit(v.Value, r.maxInspectSize),
		}
	}
	return details
}
