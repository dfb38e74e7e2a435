package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dshills/postmortem/internal/debugger"
)

// maxBodyBytes bounds evaluation request bodies.
const maxBodyBytes = 1 << 20

// EvalRequest is the body of an evaluation request.
type EvalRequest struct {
	Source string `json:"source"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleListCaptures handles GET /captures
func (s *Server) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	regs := s.store.List()
	summaries := make([]debugger.Summary, len(regs))
	for i, reg := range regs {
		summaries[i] = reg.Summary()
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleLatestCapture handles GET /captures/latest
func (s *Server) handleLatestCapture(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.store.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no captures recorded")
		return
	}
	writeJSON(w, http.StatusOK, reg.Summary())
}

// handleGetCapture handles GET /captures/{id}
func (s *Server) handleGetCapture(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reg.Summary())
}

// handleDeleteCapture handles DELETE /captures/{id}
func (s *Server) handleDeleteCapture(w http.ResponseWriter, r *http.Request) {
	if !s.store.Remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, debugger.ErrCaptureNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCaptureText handles GET /captures/{id}/text
func (s *Server) handleCaptureText(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, reg.Text())
}

// handleGetFrame handles GET /captures/{id}/frames/{index}
func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.lookup(w, r)
	if !ok {
		return
	}
	index, ok := frameIndex(w, r)
	if !ok {
		return
	}

	detail, err := reg.Inspect(index)
	if err != nil {
		s.writeDebuggerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleEvaluate handles POST /captures/{id}/frames/{index}/eval
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.lookup(w, r)
	if !ok {
		return
	}
	index, ok := frameIndex(w, r)
	if !ok {
		return
	}

	var req EvalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := reg.Evaluate(index, req.Source)
	if err != nil {
		s.writeDebuggerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleMetrics handles GET /metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// handleStylesheet handles GET /highlight.css
func (s *Server) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	io.WriteString(w, s.stylesheet)
}

// lookup resolves the {id} parameter, writing 404 when it is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*debugger.Registry, bool) {
	reg, err := s.store.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return reg, true
}

// frameIndex parses the {index} parameter, writing 400 when it is not an
// integer.
func frameIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "frame index must be an integer: "+strconv.Quote(raw))
		return 0, false
	}
	return index, true
}

func (s *Server) writeDebuggerError(w http.ResponseWriter, err error) {
	switch {
	case debugger.IsFrameIndex(err), errors.Is(err, debugger.ErrCaptureNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.WithError(err).Error("debugger request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
