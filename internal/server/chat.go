package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/harlibot/harlibot/internal/document"
	"github.com/harlibot/harlibot/internal/rag"
)

// ChatRequest is the caller-facing request body. Unknown fields are
// ignored; missing ones fail validation.
type ChatRequest struct {
	Message             string     `json:"message"`
	Language            string     `json:"language"`
	ConversationHistory []rag.Turn `json:"conversationHistory,omitempty"`
}

// ChatResponse is the non-streaming response body.
type ChatResponse struct {
	Response  string       `json:"response"`
	Sources   []rag.Source `json:"sources"`
	Timestamp time.Time    `json:"timestamp"`
	IsDemo    bool         `json:"isDemo,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleChat serves POST /api/chat, either as a single JSON response or as
// an event stream when the caller asks for one.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request format"})
		return
	}

	req := rag.Request{
		Message:  body.Message,
		Language: document.Language(body.Language),
		History:  body.ConversationHistory,
	}

	// Validation is the only hard failure; it runs before any downstream
	// call, streaming or not.
	if err := s.orchestrator.Validate(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if wantsStream(r) {
		s.streamChat(w, r, req)
		return
	}

	resp, err := s.orchestrator.Answer(r.Context(), req)
	if err != nil {
		// Validation already ran, so this is unreachable in practice; keep
		// the contract that a valid request never 5xxes.
		if errors.Is(err, rag.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  resp.Text,
		Sources:   resp.Sources,
		Timestamp: time.Now().UTC(),
		IsDemo:    resp.IsDemo,
	})
}

func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, req rag.Request) {
	sse, err := newSSEWriter(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	events, err := s.orchestrator.AnswerStream(r.Context(), req)
	if err != nil {
		// Validation already passed, so only a racing second validation
		// failure lands here; frame it as a terminal event.
		_ = sse.WriteEvent(rag.Event{Done: true, Sources: []rag.Source{}})
		return
	}

	for ev := range events {
		if err := sse.WriteEvent(ev); err != nil {
			// Client disconnected; the request context cancellation stops
			// the producer.
			s.logger.Debug("client disconnected mid-stream", "error", err)
			return
		}
	}
}

func wantsStream(r *http.Request) bool {
	if r.URL.Query().Get("stream") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
