package embedding

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	// DefaultBatchSize balances throughput against the service's per-request
	// input limits.
	DefaultBatchSize = 32

	// MaxInputChars truncates each text before sending; the embedding model
	// ignores input past its context window anyway.
	MaxInputChars = 512
)

// Stats summarizes an embedding run. Skipped batches make partial success
// visible in the final counts.
type Stats struct {
	Total         int
	Embedded      int
	FailedBatches int
	Model         string
	Dimension     int
}

// Embedder batches chunk texts through the embedding service. A failed batch
// is logged and skipped so one bad batch does not abort an offline run.
type Embedder struct {
	client    *Client
	batchSize int
	logger    *slog.Logger
}

// NewEmbedder creates an Embedder. batchSize <= 0 selects DefaultBatchSize.
func NewEmbedder(client *Client, batchSize int, logger *slog.Logger) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{client: client, batchSize: batchSize, logger: logger}
}

// EmbedTexts embeds texts batch by batch and reports per-batch outcomes in
// Stats. The returned slice is parallel to texts; entries from failed
// batches are nil.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, Stats) {
	stats := Stats{Total: len(texts)}
	vectors := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := make([]string, end-start)
		for i, text := range texts[start:end] {
			batch[i] = Truncate(text)
		}

		resp, err := e.client.EmbedTexts(ctx, batch)
		if err != nil {
			stats.FailedBatches++
			e.logger.Warn("embedding batch failed, skipping",
				"batch_start", start, "batch_end", end, "error", err)
			continue
		}
		if stats.Model == "" {
			stats.Model = resp.Model
			stats.Dimension = resp.Dimension
		} else if resp.Dimension != stats.Dimension {
			stats.FailedBatches++
			e.logger.Warn("embedding batch returned mismatched dimension, skipping",
				"batch_start", start, "got", resp.Dimension, "want", stats.Dimension)
			continue
		}
		for i, vec := range resp.Embeddings {
			vectors[start+i] = vec
			stats.Embedded++
		}
	}

	e.logger.Info("embedding run complete",
		"total", stats.Total, "embedded", stats.Embedded,
		"failed_batches", stats.FailedBatches,
		"model", stats.Model, "dimension", stats.Dimension)
	return vectors, stats
}

// EmbedQuery embeds a single query string. Unlike batch embedding, a failure
// here is returned to the caller: the query path handles it as a fallback.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	resp, err := e.client.EmbedTexts(ctx, []string{Truncate(query)})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return resp.Embeddings[0], nil
}

// Probe asks the service for its model identifier and vector dimension by
// embedding a trivial input. Used for the index compatibility check.
func (e *Embedder) Probe(ctx context.Context) (model string, dimension int, err error) {
	resp, err := e.client.EmbedTexts(ctx, []string{"probe"})
	if err != nil {
		return "", 0, fmt.Errorf("probe embedding service: %w", err)
	}
	return resp.Model, resp.Dimension, nil
}

// Truncate bounds a text to the service input limit without splitting a
// multi-byte character.
func Truncate(text string) string {
	if len(text) <= MaxInputChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= MaxInputChars {
		return text
	}
	return string(runes[:MaxInputChars])
}
