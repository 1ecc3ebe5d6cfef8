package embedding

import (
	"math"
	"testing"

	"github.com/harlibot/harlibot/internal/document"
)

func embeddedChunk(id string, vec []float32) document.EmbeddedChunk {
	return document.EmbeddedChunk{
		Chunk:          document.Chunk{ID: id, Content: "content for " + id},
		Embedding:      vec,
		EmbeddingModel: "m",
	}
}

func TestVerify_OK(t *testing.T) {
	embedded := []document.EmbeddedChunk{
		embeddedChunk("a-chunk-0", []float32{1, 0, 0}),
		embeddedChunk("a-chunk-1", []float32{0, 1, 0}),
	}
	if err := Verify(embedded, nil); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestVerify_Empty(t *testing.T) {
	if err := Verify(nil, nil); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestVerify_DimensionMismatch(t *testing.T) {
	embedded := []document.EmbeddedChunk{
		embeddedChunk("a-chunk-0", []float32{1, 0, 0}),
		embeddedChunk("a-chunk-1", []float32{0, 1}),
	}
	if err := Verify(embedded, nil); err == nil {
		t.Error("Expected error for mismatched dimensions")
	}
}

func TestVerify_NonFinite(t *testing.T) {
	embedded := []document.EmbeddedChunk{
		embeddedChunk("a-chunk-0", []float32{1, float32(math.NaN())}),
	}
	if err := Verify(embedded, nil); err == nil {
		t.Error("Expected error for NaN component")
	}

	embedded = []document.EmbeddedChunk{
		embeddedChunk("a-chunk-0", []float32{1, float32(math.Inf(1))}),
	}
	if err := Verify(embedded, nil); err == nil {
		t.Error("Expected error for Inf component")
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{1, 0}
	c := []float32{0, 1}
	d := []float32{-1, 0}

	if got := CosineSimilarity(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("Identical vectors: expected 1, got %v", got)
	}
	if got := CosineSimilarity(a, c); math.Abs(got) > 1e-9 {
		t.Errorf("Orthogonal vectors: expected 0, got %v", got)
	}
	if got := CosineSimilarity(a, d); math.Abs(got+1) > 1e-9 {
		t.Errorf("Opposite vectors: expected -1, got %v", got)
	}
	if got := CosineSimilarity(a, []float32{1}); got != 0 {
		t.Errorf("Mismatched lengths: expected 0, got %v", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, a); got != 0 {
		t.Errorf("Zero vector: expected 0, got %v", got)
	}
}
