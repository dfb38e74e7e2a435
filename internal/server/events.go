package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dshills/postmortem/internal/event"
)

// eventBuffer is how many events a slow stream client may lag behind
// before events are dropped for it.
const eventBuffer = 32

// handleEvents handles GET /events as a server-sent event stream. The
// optional topic query parameter is a subscription pattern.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	pattern := event.Topic(r.URL.Query().Get("topic"))
	if pattern == "" {
		pattern = event.WildcardMulti
	}

	ch := make(chan event.Event, eventBuffer)
	sub, err := s.bus.Subscribe(pattern, func(_ context.Context, e event.Event) {
		select {
		case ch <- e:
		default:
			s.logger.WithField("topic", e.Topic).Debug("event stream client lagging, dropped event")
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-ch:
			data, err := json.Marshal(e)
			if err != nil {
				s.logger.WithError(err).Warn("encode event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Topic, data)
			flusher.Flush()
		}
	}
}
