package server

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the /health payload. Collection details are included
// when the vector store is reachable.
type HealthResponse struct {
	Status     string `json:"status"`
	VectorDB   string `json:"vectorDb"`
	Collection string `json:"collection,omitempty"`
	Points     uint64 `json:"points,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// HealthStore is the slice of the storage layer the health check needs.
type HealthStore interface {
	Health(ctx context.Context) error
	Count(ctx context.Context) (uint64, error)
	Collection() string
}

// handleHealth checks vector store connectivity: 200 with collection stats
// when healthy, 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Timestamp: time.Now().UTC().Format(time.RFC3339)}

	if err := s.store.Health(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.VectorDB = "disconnected"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Status = "healthy"
	resp.VectorDB = "connected"
	resp.Collection = s.store.Collection()
	if count, err := s.store.Count(ctx); err == nil {
		resp.Points = count
	}
	writeJSON(w, http.StatusOK, resp)
}
