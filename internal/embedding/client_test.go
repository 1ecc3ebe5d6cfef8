package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func embedHandler(t *testing.T, dimension int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		resp := EmbedResponse{
			Model:      "all-MiniLM-L6-v2",
			Dimension:  dimension,
			Embeddings: make([][]float32, len(req.Texts)),
		}
		for i := range resp.Embeddings {
			vec := make([]float32, dimension)
			vec[0] = float32(i + 1)
			resp.Embeddings[i] = vec
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestClient_EmbedTexts(t *testing.T) {
	srv := httptest.NewServer(embedHandler(t, 384))
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.EmbedTexts(context.Background(), []string{"water bill", "trash pickup"})
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}
	if len(resp.Embeddings) != 2 {
		t.Errorf("Expected 2 vectors, got %d", len(resp.Embeddings))
	}
	if resp.Dimension != 384 {
		t.Errorf("Dimension: expected 384, got %d", resp.Dimension)
	}
	if resp.Model != "all-MiniLM-L6-v2" {
		t.Errorf("Model: expected all-MiniLM-L6-v2, got %q", resp.Model)
	}
	for i, vec := range resp.Embeddings {
		if len(vec) != 384 {
			t.Errorf("Vector %d has %d dimensions", i, len(vec))
		}
	}
}

// TestClient_RetriesServerErrors verifies 5xx responses are retried until
// the service recovers.
func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	handler := embedHandler(t, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "temporarily down", http.StatusServiceUnavailable)
			return
		}
		handler(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.EmbedTexts(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("EmbedTexts failed after retries: %v", err)
	}
	if len(resp.Embeddings) != 1 {
		t.Errorf("Expected 1 vector, got %d", len(resp.Embeddings))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 calls (2 failures, 1 success), got %d", got)
	}
}

// TestClient_ClientErrorIsPermanent verifies a 400 fails immediately with no
// retries.
func TestClient_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "texts required", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.EmbedTexts(context.Background(), []string{"hello"}); err == nil {
		t.Fatal("Expected error for 400 response")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 call for a permanent error, got %d", got)
	}
}

func TestClient_InvalidResponseCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(EmbedResponse{
			Model:      "m",
			Dimension:  4,
			Embeddings: [][]float32{{1, 0, 0, 0}}, // one vector for two texts
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.EmbedTexts(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("Expected ErrInvalidResponse, got %v", err)
	}
}

func TestClient_InvalidResponseDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(EmbedResponse{
			Model:      "m",
			Dimension:  4,
			Embeddings: [][]float32{{1, 0}}, // shorter than declared
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.EmbedTexts(context.Background(), []string{"a"})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("Expected ErrInvalidResponse, got %v", err)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL)
	if _, err := client.EmbedTexts(ctx, []string{"a"}); err == nil {
		t.Fatal("Expected error when context is cancelled")
	}
}
