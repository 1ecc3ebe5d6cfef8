package embedding

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/harlibot/harlibot/internal/document"
)

// Verify checks an embedding run before indexing: every vector must have
// the declared dimension and only finite components. A failed similarity
// smoke test (related topics should score higher than unrelated ones) is
// logged as a warning, not a failure, since it indicates degraded quality
// rather than corrupt data.
func Verify(embedded []document.EmbeddedChunk, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if len(embedded) == 0 {
		return fmt.Errorf("no embedded chunks to verify")
	}

	dimension := len(embedded[0].Embedding)
	for _, chunk := range embedded {
		if len(chunk.Embedding) != dimension {
			return fmt.Errorf("chunk %s has %d dimensions, expected %d",
				chunk.ID, len(chunk.Embedding), dimension)
		}
		for _, v := range chunk.Embedding {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return fmt.Errorf("chunk %s has a non-finite embedding component", chunk.ID)
			}
		}
	}
	logger.Info("embeddings verified", "count", len(embedded), "dimension", dimension)

	smokeTest(embedded, logger)
	return nil
}

// smokeTest compares two chunks mentioning the same topic against one
// mentioning an unrelated topic; the same-topic pair should be closer.
func smokeTest(embedded []document.EmbeddedChunk, logger *slog.Logger) {
	first := findByToken(embedded, "water", nil)
	second := findByToken(embedded, "water", first)
	unrelated := findByToken(embedded, "police", nil)
	if first == nil || second == nil || unrelated == nil {
		logger.Debug("skipping similarity smoke test, topic tokens not found")
		return
	}

	related := CosineSimilarity(first.Embedding, second.Embedding)
	crossed := CosineSimilarity(first.Embedding, unrelated.Embedding)
	if related > crossed {
		logger.Info("similarity smoke test passed",
			"related", fmt.Sprintf("%.3f", related), "unrelated", fmt.Sprintf("%.3f", crossed))
	} else {
		logger.Warn("similarity smoke test failed, embeddings may be degraded",
			"related", fmt.Sprintf("%.3f", related), "unrelated", fmt.Sprintf("%.3f", crossed))
	}
}

func findByToken(embedded []document.EmbeddedChunk, token string, exclude *document.EmbeddedChunk) *document.EmbeddedChunk {
	for i := range embedded {
		chunk := &embedded[i]
		if exclude != nil && chunk.ID == exclude.ID {
			continue
		}
		if strings.Contains(strings.ToLower(chunk.Content), token) {
			return chunk
		}
	}
	return nil
}

// CosineSimilarity computes the cosine of the angle between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
