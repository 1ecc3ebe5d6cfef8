// Package storage wraps the Qdrant vector store behind the operations the
// pipeline and the query path need: full collection rebuilds, batched
// loading, and language-filtered similarity search.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/harlibot/harlibot/internal/document"
)

// ANN construction parameters for the HNSW graph, chosen for a small,
// read-mostly corpus.
const (
	hnswM           = 16
	hnswEfConstruct = 200
)

// Store wraps the Qdrant client with connection management and the
// collection lifecycle.
type Store struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

// NewStore creates a Qdrant client and verifies the server is reachable,
// retrying the health check with exponential backoff before failing fast.
func NewStore(host string, port int, collection string, logger *slog.Logger) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	store := &Store{client: client, collection: collection, logger: logger}
	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}
	return store, nil
}

func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error { return s.Health(ctx) }, backoff.WithContext(b, ctx))
}

// Health performs a single health check.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// Collection returns the collection name the store operates on.
func (s *Store) Collection() string {
	return s.collection
}

// RecreateCollection drops any existing collection of the configured name
// (a no-op when absent) and creates a fresh one for the given vector
// dimension: cosine distance, explicit HNSW construction parameters, and
// keyword indexes on the filterable payload fields. Ingestion runs always
// rebuild from scratch.
func (s *Store) RecreateCollection(ctx context.Context, dimension int) error {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range names {
		if name == s.collection {
			if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
				return fmt.Errorf("delete collection: %w", err)
			}
			s.logger.Info("deleted existing collection", "collection", s.collection)
			break
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
		HnswConfig: &qdrant.HnswConfigDiff{
			M:           qdrant.PtrOf(uint64(hnswM)),
			EfConstruct: qdrant.PtrOf(uint64(hnswEfConstruct)),
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Keyword indexes keep metadata filtering fast.
	for _, field := range []string{fieldLanguage, fieldCategory, fieldChunkPosition} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for field %s: %w", field, err)
		}
	}
	return nil
}

// PointID derives the deterministic Qdrant point id for a chunk id. Qdrant
// requires UUID ids; hashing the chunk id into a namespace UUID keeps
// re-ingestion idempotent (same chunk, same point).
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

// UpsertChunks bulk-loads embedded chunks in batches. A failed batch is
// logged and skipped; the returned count reflects only successfully loaded
// entries.
func (s *Store) UpsertChunks(ctx context.Context, embedded []document.EmbeddedChunk, batchSize int) (indexed int, failedBatches int) {
	if batchSize <= 0 {
		batchSize = 100
	}

	for start := 0; start < len(embedded); start += batchSize {
		end := min(start+batchSize, len(embedded))
		batch := embedded[start:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for i, chunk := range batch {
			points[i] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(PointID(chunk.ID)),
				Vectors: qdrant.NewVectors(chunk.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					fieldChunkID:        chunk.ID,
					fieldContent:        chunk.Content,
					fieldSourceURL:      chunk.Metadata.SourceURL,
					fieldSourceTitle:    chunk.Metadata.SourceTitle,
					fieldCategory:       chunk.Metadata.Category,
					fieldLanguage:       string(chunk.Metadata.Language),
					fieldChunkPosition:  string(chunk.Metadata.ChunkPosition),
					fieldWordCount:      chunk.Metadata.WordCount,
					fieldHasContactInfo: chunk.Metadata.HasContactInfo,
					fieldHasAddress:     chunk.Metadata.HasAddress,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			failedBatches++
			s.logger.Warn("index batch failed, skipping",
				"batch_start", start, "batch_end", end, "error", err)
			continue
		}
		indexed += len(batch)
	}
	return indexed, failedBatches
}

func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

// Search returns the top-k chunks nearest to the query embedding whose
// language payload matches the requested language. With cosine distance the
// score Qdrant reports is the similarity itself.
func (s *Store) Search(ctx context.Context, embedding []float32, k int, language document.Language) ([]Result, error) {
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldLanguage, string(language)),
			},
		},
		Limit:       qdrant.PtrOf(uint64(k)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	out := make([]Result, 0, len(results))
	for _, point := range results {
		payload := point.Payload
		out = append(out, Result{
			ID:      payload[fieldChunkID].GetStringValue(),
			Content: payload[fieldContent].GetStringValue(),
			Score:   float64(point.Score),
			Metadata: document.ChunkMetadata{
				SourceURL:      payload[fieldSourceURL].GetStringValue(),
				SourceTitle:    payload[fieldSourceTitle].GetStringValue(),
				Category:       payload[fieldCategory].GetStringValue(),
				Language:       document.Language(payload[fieldLanguage].GetStringValue()),
				ChunkPosition:  document.ChunkPosition(payload[fieldChunkPosition].GetStringValue()),
				WordCount:      int(payload[fieldWordCount].GetIntegerValue()),
				HasContactInfo: payload[fieldHasContactInfo].GetBoolValue(),
				HasAddress:     payload[fieldHasAddress].GetBoolValue(),
			},
		})
	}
	return out, nil
}

// Count returns the number of indexed entries.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return info.GetPointsCount(), nil
}

// Dimension returns the collection's configured vector size. The query path
// compares it against the embedding service's dimension so a model mismatch
// fails loudly instead of silently degrading retrieval.
func (s *Store) Dimension(ctx context.Context) (int, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return 0, ErrEmptyCollection
	}
	return int(params.Size), nil
}

// Close closes the underlying client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
