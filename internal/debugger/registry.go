// Package debugger serves one captured failure to an interactive client.
//
// A Registry owns a capture and the REPL sessions created for its frames.
// Frames are addressed by their index in the backtrace; the registry
// renders a frame's source and variables on Inspect and forwards code to
// the frame's session on Evaluate, creating the session the first time.
package debugger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/dshills/postmortem/internal/capture"
	"github.com/dshills/postmortem/internal/editor"
	"github.com/dshills/postmortem/internal/event"
	"github.com/dshills/postmortem/internal/highlight"
	"github.com/dshills/postmortem/internal/logging"
	"github.com/dshills/postmortem/internal/repl"
	"github.com/dshills/postmortem/internal/source"
)

// DefaultMaxInspectSize is the default limit on raw variable text, in
// characters.
const DefaultMaxInspectSize = 100000

// Registry is the debugging instance for one capture.
type Registry struct {
	capture *capture.Capture

	provider       repl.Provider
	maxInspectSize int
	extractor      *source.Extractor
	editor         editor.Formatter
	highlighter    highlight.Highlighter
	logger         *logging.Logger
	metrics        *Metrics
	bus            *event.Bus

	// slots holds one session per frame index, created on first use.
	slots []slot
}

type slot struct {
	mu      sync.Mutex
	session repl.Session
}

// Option configures a Registry.
type Option func(*config)

type config struct {
	provider       repl.Provider
	maxInspectSize int
	contextLines   int
	reader         source.Reader
	editor         editor.Formatter
	highlighter    highlight.Highlighter
	logger         *logging.Logger
	metrics        *Metrics
	bus            *event.Bus
}

// WithProvider sets the REPL provider. Defaults to repl.Default().
func WithProvider(p repl.Provider) Option {
	return func(c *config) {
		if p != nil {
			c.provider = p
		}
	}
}

// WithMaxInspectSize sets the raw rendering limit. Zero or less disables
// the limit.
func WithMaxInspectSize(n int) Option {
	return func(c *config) {
		c.maxInspectSize = n
	}
}

// WithContextLines sets how many source lines surround the current line.
func WithContextLines(n int) Option {
	return func(c *config) {
		c.contextLines = n
	}
}

// WithReader sets the source reader. Defaults to reading from disk.
func WithReader(r source.Reader) Option {
	return func(c *config) {
		if r != nil {
			c.reader = r
		}
	}
}

// WithEditor sets the editor link formatter. Defaults to no links.
func WithEditor(f editor.Formatter) Option {
	return func(c *config) {
		if f != nil {
			c.editor = f
		}
	}
}

// WithHighlighter sets the highlighter for evaluated input. Defaults to
// escaping only.
func WithHighlighter(h highlight.Highlighter) Option {
	return func(c *config) {
		if h != nil {
			c.highlighter = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithBus publishes session and evaluation events to b.
func WithBus(b *event.Bus) Option {
	return func(c *config) {
		c.bus = b
	}
}

// New creates a registry for c.
func New(c *capture.Capture, opts ...Option) *Registry {
	cfg := config{
		provider:       repl.Default(),
		maxInspectSize: DefaultMaxInspectSize,
		contextLines:   source.DefaultRadius,
		reader:         source.FileReader{},
		editor:         editor.None{},
		highlighter:    highlight.Plain{},
		logger:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.metrics == nil {
		cfg.metrics = NewMetrics()
	}

	logger := cfg.logger.WithComponent("debugger").WithField("capture", c.ID)
	return &Registry{
		capture:        c,
		provider:       cfg.provider,
		maxInspectSize: cfg.maxInspectSize,
		extractor:      source.NewExtractor(cfg.reader, cfg.contextLines, logger),
		editor:         cfg.editor,
		highlighter:    cfg.highlighter,
		logger:         logger,
		metrics:        cfg.metrics,
		bus:            cfg.bus,
		slots:          make([]slot, len(c.Frames)),
	}
}

// ID returns the capture id.
func (r *Registry) ID() string {
	return r.capture.ID
}

// Capture returns the capture being debugged.
func (r *Registry) Capture() *capture.Capture {
	return r.capture
}

// Provider returns the REPL provider.
func (r *Registry) Provider() repl.Provider {
	return r.provider
}

// frame resolves index or returns a FrameIndexError.
func (r *Registry) frame(index int) (*capture.Frame, error) {
	f, ok := r.capture.Frame(index)
	if !ok {
		r.metrics.RecordIndexError()
		return nil, &FrameIndexError{Index: index, Frames: len(r.capture.Frames)}
	}
	return f, nil
}

// Evaluate runs code in the REPL session of the frame at index, creating
// the session on first use. A frame without a binding yields a result
// whose Error is UnavailableMessage.
func (r *Registry) Evaluate(index int, code string) (*EvalResult, error) {
	f, err := r.frame(index)
	if err != nil {
		return nil, err
	}

	b, ok := f.EvaluationContext()
	if !ok {
		r.metrics.RecordUnavailable()
		return &EvalResult{Error: UnavailableMessage}, nil
	}

	session, err := r.sessionFor(index, b)
	if err != nil {
		r.metrics.RecordProviderError()
		r.logger.WithError(err).WithField("frame", index).Warn("repl session unavailable")
		return nil, fmt.Errorf("create %s session for frame %d: %w", r.provider.Name(), index, err)
	}

	timer := StartTimer()
	result, prompt, prefilled := session.SendInput(code)
	r.metrics.RecordEval(timer.Elapsed())
	r.logger.WithField("frame", index).Debug("evaluated input in %s", timer.Elapsed())
	r.publish(event.TopicFrameEvaluated, map[string]any{"frame": index, "prompt": prompt})

	return &EvalResult{
		HighlightedInput: r.highlighter.Highlight(code),
		PrefilledInput:   prefilled,
		Prompt:           prompt,
		Result:           result,
	}, nil
}

// sessionFor returns the session for index, creating it under the slot's
// lock so concurrent first evaluations create exactly one. A provider
// failure leaves the slot empty.
func (r *Registry) sessionFor(index int, b capture.Binding) (repl.Session, error) {
	s := &r.slots[index]
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return s.session, nil
	}
	session, err := r.provider.New(b, r.capture)
	if err != nil {
		return nil, err
	}
	s.session = session
	r.metrics.RecordSessionCreated()
	r.logger.WithField("frame", index).WithField("provider", r.provider.Name()).Debug("created repl session")
	r.publish(event.TopicSessionCreated, map[string]any{"frame": index, "provider": r.provider.Name()})
	return session, nil
}

func (r *Registry) publish(topic event.Topic, data map[string]any) {
	if err := r.bus.Publish(context.Background(), event.Event{Topic: topic, CaptureID: r.capture.ID, Data: data}); err != nil {
		r.logger.WithError(err).Warn("publish %s", topic)
	}
}

// Session returns the session for index if one has been created.
func (r *Registry) Session(index int) (repl.Session, bool) {
	if index < 0 || index >= len(r.slots) {
		return nil, false
	}
	s := &r.slots[index]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.session != nil
}

// SessionCount returns the number of sessions created so far.
func (r *Registry) SessionCount() int {
	n := 0
	for i := range r.slots {
		s := &r.slots[i]
		s.mu.Lock()
		if s.session != nil {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

// Close releases sessions that hold resources. The registry must not be
// used afterwards.
func (r *Registry) Close() error {
	var first error
	for i := range r.slots {
		s := &r.slots[i]
		s.mu.Lock()
		if c, ok := s.session.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
		s.session = nil
		s.mu.Unlock()
	}
	return first
}

// EvalResult is the response to an evaluation. An unavailable result
// encodes as {"error": ...} alone.
type EvalResult struct {
	HighlightedInput string `json:"highlighted_input"`
	PrefilledInput   string `json:"prefilled_input"`
	Prompt           string `json:"prompt"`
	Result           string `json:"result"`
	Error            string `json:"error,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e EvalResult) MarshalJSON() ([]byte, error) {
	if e.Unavailable() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{e.Error})
	}
	type plain EvalResult
	return json.Marshal(plain(e))
}

// Unavailable reports whether the frame had no evaluation context.
func (e EvalResult) Unavailable() bool {
	return e.Error != ""
}
