// Package indexer orchestrates the offline stages that turn raw documents
// into a queryable vector collection: chunking, embedding, verification,
// and the bulk index rebuild with its post-build smoke test.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harlibot/harlibot/internal/chunker"
	"github.com/harlibot/harlibot/internal/document"
	"github.com/harlibot/harlibot/internal/embedding"
	"github.com/harlibot/harlibot/internal/storage"
)

// smokeQueries are issued after every rebuild; at least one must return
// results before the build is declared good.
var smokeQueries = []struct {
	Text     string
	Language document.Language
}{
	{"How do I pay my water bill?", document.English},
	{"¿Cómo pago mi factura de agua?", document.Spanish},
	{"What is the phone number for the police department?", document.English},
	{"Trash collection schedule", document.English},
}

// IndexResult reports what a full pipeline run accomplished.
type IndexResult struct {
	TotalDocs     int
	TotalChunks   int
	Embedded      int
	FailedBatches int
	Indexed       int
	FailedIndex   int
	Model         string
	Dimension     int
	Duration      time.Duration
}

// Pipeline holds the stage components. Stages run sequentially, batch by
// batch; a failed batch is skipped and counted, never fatal.
type Pipeline struct {
	chunker        *chunker.Chunker
	embedder       *embedding.Embedder
	store          *storage.Store
	indexBatchSize int
	logger         *slog.Logger
}

// NewPipeline wires the stage components together.
func NewPipeline(ch *chunker.Chunker, emb *embedding.Embedder, store *storage.Store, indexBatchSize int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		chunker:        ch,
		embedder:       emb,
		store:          store,
		indexBatchSize: indexBatchSize,
		logger:         logger,
	}
}

// Process chunks every document. Chunking is deterministic, so two runs
// over the same documents yield identical chunk ids and contents.
func (p *Pipeline) Process(docs []document.RawDocument) []document.Chunk {
	var chunks []document.Chunk
	for _, doc := range docs {
		chunks = append(chunks, p.chunker.ChunkDocument(doc)...)
	}
	p.logger.Info("processing complete", "documents", len(docs), "chunks", len(chunks))
	LogSummary(chunks, p.logger)
	return chunks
}

// Embed generates embeddings for all chunks and verifies the result.
// Chunks from failed batches are dropped; the stats make the shortfall
// visible.
func (p *Pipeline) Embed(ctx context.Context, chunks []document.Chunk) ([]document.EmbeddedChunk, embedding.Stats, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, stats := p.embedder.EmbedTexts(ctx, texts)
	if stats.Embedded == 0 {
		return nil, stats, fmt.Errorf("no chunks were embedded (%d batches failed)", stats.FailedBatches)
	}

	embedded := make([]document.EmbeddedChunk, 0, stats.Embedded)
	for i, vec := range vectors {
		if vec == nil {
			continue
		}
		embedded = append(embedded, document.EmbeddedChunk{
			Chunk:          chunks[i],
			Embedding:      vec,
			EmbeddingModel: stats.Model,
		})
	}

	if err := embedding.Verify(embedded, p.logger); err != nil {
		return nil, stats, fmt.Errorf("embedding verification: %w", err)
	}
	return embedded, stats, nil
}

// BuildIndex rebuilds the collection from scratch and bulk-loads the
// embedded chunks, then smoke-tests retrieval in both languages.
func (p *Pipeline) BuildIndex(ctx context.Context, embedded []document.EmbeddedChunk) (*IndexResult, error) {
	start := time.Now()
	if len(embedded) == 0 {
		return nil, fmt.Errorf("nothing to index")
	}

	dimension := len(embedded[0].Embedding)
	if err := p.store.RecreateCollection(ctx, dimension); err != nil {
		return nil, fmt.Errorf("recreate collection: %w", err)
	}

	indexed, failed := p.store.UpsertChunks(ctx, embedded, p.indexBatchSize)
	result := &IndexResult{
		TotalChunks: len(embedded),
		Indexed:     indexed,
		FailedIndex: failed,
		Model:       embedded[0].EmbeddingModel,
		Dimension:   dimension,
		Duration:    time.Since(start),
	}
	p.logger.Info("index load complete",
		"indexed", indexed, "failed_batches", failed, "dimension", dimension)

	if err := p.smokeTest(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// smokeTest issues the canonical queries and requires at least one
// non-empty result set across them.
func (p *Pipeline) smokeTest(ctx context.Context) error {
	hits := 0
	for _, q := range smokeQueries {
		vec, err := p.embedder.EmbedQuery(ctx, q.Text)
		if err != nil {
			p.logger.Warn("smoke query embedding failed", "query", q.Text, "error", err)
			continue
		}
		results, err := p.store.Search(ctx, vec, 3, q.Language)
		if err != nil {
			p.logger.Warn("smoke query search failed", "query", q.Text, "error", err)
			continue
		}
		if len(results) > 0 {
			hits++
			p.logger.Info("smoke query ok",
				"query", q.Text, "results", len(results),
				"top_score", fmt.Sprintf("%.3f", results[0].Score))
		}
	}
	if hits == 0 {
		return fmt.Errorf("post-build smoke test failed: no smoke query returned results")
	}
	return nil
}
