// Package server exposes the chat API over HTTP: a single conversational
// endpoint with blocking and streaming variants, plus a health check.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/harlibot/harlibot/internal/rag"
)

// Server holds the request handlers' dependencies.
type Server struct {
	orchestrator *rag.Orchestrator
	store        HealthStore
	logger       *slog.Logger
}

// New creates a server around an orchestrator and the storage handle the
// health check uses.
func New(orchestrator *rag.Orchestrator, store HealthStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{orchestrator: orchestrator, store: store, logger: logger}
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/health", s.handleHealth)
	return s.withRequestLog(mux)
}

// withRequestLog tags every request with an id and logs its outcome.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}
