package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/harlibot/harlibot/internal/rag"
)

// sseWriter frames orchestrator events for the event-stream transport: each
// event is one JSON payload on a data line, flushed immediately.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter sets the event-stream headers and returns a writer, or an
// error when the underlying ResponseWriter cannot flush.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	return &sseWriter{w: w, flusher: flusher}, nil
}

// textEvent is the incremental answer fragment payload.
type textEvent struct {
	Text string `json:"text"`
}

// doneEvent is the single terminal payload carrying the cited sources.
type doneEvent struct {
	Done    bool         `json:"done"`
	Sources []rag.Source `json:"sources"`
	IsDemo  bool         `json:"isDemo,omitempty"`
}

// WriteEvent frames one orchestrator event.
func (s *sseWriter) WriteEvent(ev rag.Event) error {
	var payload any
	if ev.Done {
		payload = doneEvent{Done: true, Sources: ev.Sources, IsDemo: ev.IsDemo}
	} else {
		payload = textEvent{Text: ev.Text}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}
