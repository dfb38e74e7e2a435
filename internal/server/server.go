// Package server exposes captures over HTTP and MCP.
//
// Server wraps an application handler with Recoverer, which turns a panic
// into a stored capture, and serves the debugger API under BasePath:
//
//	GET    /__postmortem/captures                            capture summaries, newest first
//	GET    /__postmortem/captures/latest                     newest capture
//	GET    /__postmortem/captures/{id}                       one capture
//	DELETE /__postmortem/captures/{id}                       drop a capture and its sessions
//	GET    /__postmortem/captures/{id}/text                  plain-text report
//	GET    /__postmortem/captures/{id}/frames/{index}        frame detail
//	POST   /__postmortem/captures/{id}/frames/{index}/eval   evaluate {"source": "..."}
//	GET    /__postmortem/metrics                             debugger counters
//	GET    /__postmortem/events?topic=capture.*              server-sent lifecycle events
//
// With MCP enabled the same operations are offered as tools at /mcp.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dshills/postmortem/internal/capture"
	"github.com/dshills/postmortem/internal/debugger"
	"github.com/dshills/postmortem/internal/event"
	"github.com/dshills/postmortem/internal/logging"
)

// BasePath prefixes every debugger route.
const BasePath = "/__postmortem"

// MCPPath is where the MCP endpoint is mounted.
const MCPPath = "/mcp"

// Server routes debugger requests and records panics from the wrapped
// application routes.
type Server struct {
	store        *debugger.Store
	metrics      *debugger.Metrics
	bus          *event.Bus
	logger       *logging.Logger
	registryOpts []debugger.Option
	root         string
	stylesheet   string
	mcp          bool
	version      string
	appRoutes    func(chi.Router)
	router       chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics reported at /__postmortem/metrics.
func WithMetrics(m *debugger.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithBus enables the /__postmortem/events stream and publishes registry
// events to b.
func WithBus(b *event.Bus) Option {
	return func(s *Server) {
		s.bus = b
	}
}

// WithRegistryOptions sets the options every new registry is built with.
func WithRegistryOptions(opts ...debugger.Option) Option {
	return func(s *Server) {
		s.registryOpts = append(s.registryOpts, opts...)
	}
}

// WithRoot sets the application root used to classify captured frames.
func WithRoot(root string) Option {
	return func(s *Server) {
		s.root = root
	}
}

// WithStylesheet serves css at /__postmortem/highlight.css.
func WithStylesheet(css string) Option {
	return func(s *Server) {
		s.stylesheet = css
	}
}

// WithMCP enables the MCP endpoint.
func WithMCP(enabled bool) Option {
	return func(s *Server) {
		s.mcp = enabled
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithRoutes mounts application routes behind the recovering middleware.
func WithRoutes(fn func(chi.Router)) Option {
	return func(s *Server) {
		s.appRoutes = fn
	}
}

// New creates a server storing captures in store.
func New(store *debugger.Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		metrics: debugger.NewMetrics(),
		logger:  logging.Nop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("server")
	s.registryOpts = append([]debugger.Option{
		debugger.WithMetrics(s.metrics),
		debugger.WithBus(s.bus),
	}, s.registryOpts...)
	s.router = s.buildRouter()
	return s
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Store returns the capture store.
func (s *Server) Store() *debugger.Store {
	return s.store
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logPrinter{s.logger},
		NoColor: true,
	}))
	r.Use(s.Recoverer)

	r.Route(BasePath, func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
		if s.bus != nil {
			r.Get("/events", s.handleEvents)
		}
		if s.stylesheet != "" {
			r.Get("/highlight.css", s.handleStylesheet)
		}

		r.Route("/captures", func(r chi.Router) {
			r.Get("/", s.handleListCaptures)
			r.Get("/latest", s.handleLatestCapture)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCapture)
				r.Delete("/", s.handleDeleteCapture)
				r.Get("/text", s.handleCaptureText)
				r.Get("/frames/{index}", s.handleGetFrame)
				r.Post("/frames/{index}/eval", s.handleEvaluate)
			})
		})
	})

	if s.mcp {
		r.Handle(MCPPath, s.mcpHandler())
	}

	if s.appRoutes != nil {
		r.Group(s.appRoutes)
	}
	return r
}

// Record wraps c in a registry, stores it and logs the failure.
func (s *Server) Record(ctx context.Context, c *capture.Capture) *debugger.Registry {
	reg := debugger.New(c, s.registryOpts...)
	s.store.Put(reg)

	l := s.logger.WithField("capture", reg.ID())
	if id := middleware.GetReqID(ctx); id != "" {
		l = l.WithField("request_id", id)
	}
	l.Error("%s: %s (inspect at %s)", c.Heading(), c.DisplayMessage(), captureURL(reg.ID()))
	return reg
}

func captureURL(id string) string {
	return BasePath + "/captures/" + id
}
