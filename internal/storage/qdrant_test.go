//go:build integration

package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlibot/harlibot/internal/document"
)

const testDimension = 8

// setupTestStore connects to a local Qdrant and rebuilds a scratch
// collection. Skips when Qdrant is not running.
func setupTestStore(t *testing.T) *Store {
	store, err := NewStore("localhost", 6334, "harlibot_test", nil)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.RecreateCollection(context.Background(), testDimension))
	return store
}

func testChunk(i int, lang document.Language) document.EmbeddedChunk {
	vec := make([]float32, testDimension)
	vec[i%testDimension] = 1
	return document.EmbeddedChunk{
		Chunk: document.Chunk{
			ID:      fmt.Sprintf("abc123-chunk-%d", i),
			Content: fmt.Sprintf("Chunk %d about water billing.", i),
			Metadata: document.ChunkMetadata{
				SourceURL:      fmt.Sprintf("https://www.harlingentx.gov/p%d", i),
				SourceTitle:    fmt.Sprintf("Page %d", i),
				Category:       "services",
				Language:       lang,
				ChunkPosition:  document.PositionStart,
				WordCount:      5,
				HasContactInfo: i%2 == 0,
			},
		},
		Embedding:      vec,
		EmbeddingModel: "test-model",
	}
}

func TestUpsertAndSearch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	chunks := []document.EmbeddedChunk{
		testChunk(0, document.English),
		testChunk(1, document.English),
		testChunk(2, document.Spanish),
	}
	indexed, failed := store.UpsertChunks(ctx, chunks, 100)
	require.Equal(t, 3, indexed)
	require.Equal(t, 0, failed)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	// Language filter: Spanish query vector nearest to chunk 2, and only
	// Spanish entries come back.
	query := make([]float32, testDimension)
	query[2] = 1
	results, err := store.Search(ctx, query, 5, document.Spanish)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "abc123-chunk-2", results[0].ID)
	assert.Equal(t, document.Spanish, results[0].Metadata.Language)

	// Payload round-trips completely.
	assert.Equal(t, "Chunk 2 about water billing.", results[0].Content)
	assert.Equal(t, "Page 2", results[0].Metadata.SourceTitle)
	assert.Equal(t, "services", results[0].Metadata.Category)
	assert.Equal(t, document.PositionStart, results[0].Metadata.ChunkPosition)
	assert.Equal(t, 5, results[0].Metadata.WordCount)
	assert.True(t, results[0].Metadata.HasContactInfo)

	// Exact match scores near 1 under cosine similarity.
	assert.InDelta(t, 1.0, results[0].Score, 0.01)
}

// TestUpsertIdempotent verifies re-ingesting the same chunks replaces the
// points instead of duplicating them.
func TestUpsertIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	chunks := []document.EmbeddedChunk{testChunk(0, document.English), testChunk(1, document.English)}
	store.UpsertChunks(ctx, chunks, 100)
	store.UpsertChunks(ctx, chunks, 100)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestDimension(t *testing.T) {
	store := setupTestStore(t)
	dim, err := store.Dimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testDimension, dim)
}

func TestRecreateCollectionDropsData(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.UpsertChunks(ctx, []document.EmbeddedChunk{testChunk(0, document.English)}, 100)
	require.NoError(t, store.RecreateCollection(ctx, testDimension))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchTopK(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var chunks []document.EmbeddedChunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, testChunk(i, document.English))
	}
	store.UpsertChunks(ctx, chunks, 100)

	query := make([]float32, testDimension)
	query[0] = 1
	results, err := store.Search(ctx, query, 5, document.English)
	require.NoError(t, err)
	assert.Len(t, results, 5)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}
