package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dshills/postmortem/internal/capture"
	"github.com/dshills/postmortem/internal/debugger"
	"github.com/dshills/postmortem/internal/logging"
)

// Recoverer records a panic raised while serving a request and replies 500
// with the capture id. Handlers downstream can register their locals with
// capture.BindLocals(r.Context(), ...) so the capture can evaluate in their
// frames.
func (s *Server) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := capture.NewScope()
		r = r.WithContext(capture.WithScope(r.Context(), scope))

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			opts := append([]capture.Option{
				capture.WithRoot(s.root),
				capture.WithRequest(r.Method, r.URL.Path),
			}, scope.Options()...)
			c := capture.FromPanic(rec, opts...)
			s.writeCrash(w, r, s.Record(r.Context(), c))
		}()

		next.ServeHTTP(w, r)
	})
}

// crashResponse is the JSON body of a recovered panic.
type crashResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Message string `json:"message"`
	URL     string `json:"url"`
	Report  string `json:"report"`
}

func (s *Server) writeCrash(w http.ResponseWriter, r *http.Request, reg *debugger.Registry) {
	c := reg.Capture()
	w.Header().Set("X-Postmortem-Capture", reg.ID())

	if acceptsJSON(r) {
		writeJSON(w, http.StatusInternalServerError, crashResponse{
			ID:      reg.ID(),
			Type:    c.Type,
			Message: c.DisplayMessage(),
			URL:     captureURL(reg.ID()),
			Report:  reg.Text(),
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, "capture %s: %s\n\n%s", reg.ID(), captureURL(reg.ID()), reg.Text())
}

// acceptsJSON reports whether the request prefers a JSON body.
func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// logPrinter adapts a Logger to chi's request logger.
type logPrinter struct {
	logger *logging.Logger
}

func (p logPrinter) Print(v ...any) {
	p.logger.Info("%s", fmt.Sprint(v...))
}
