// Package main provides the ingestion CLI that builds the city-content
// vector index: crawl or extract raw documents, chunk and annotate them,
// generate embeddings, and load the index.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harlibot/harlibot/internal/chunker"
	"github.com/harlibot/harlibot/internal/config"
	"github.com/harlibot/harlibot/internal/crawler"
	"github.com/harlibot/harlibot/internal/document"
	"github.com/harlibot/harlibot/internal/embedding"
	"github.com/harlibot/harlibot/internal/extract"
	"github.com/harlibot/harlibot/internal/indexer"
	"github.com/harlibot/harlibot/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "harlibot-ingest",
	Short: "HarliBot content ingestion tool",
	Long:  "CLI for building the city-content vector index: crawl, extract, process, embed, index.",
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the city website and save raw documents",
	Long: `Crawls same-domain pages from the configured seed URL and writes the
full raw document set to data/raw/documents.json once at the end.

Environment variables:
  CRAWL_SEED_URL             Seed URL (default: https://www.harlingentx.gov/)
  CRAWL_ALLOWED_DOMAIN       Allowed domain (default: harlingentx.gov)
  CRAWL_MAX_PAGES            Page budget per run (default: 500)
  CRAWL_CONCURRENCY          Parallel fetches (default: 3)
  CRAWL_REQUESTS_PER_MINUTE  Politeness ceiling (default: 30)`,
	RunE: runCrawl,
}

var extractCmd = &cobra.Command{
	Use:   "extract [archive-dir]",
	Short: "Extract raw documents from a local HTML archive",
	Long: `Walks a directory of locally saved HTML pages and writes the same raw
document set the crawler would, deduplicated by URL hash. Use this for
offline, reproducible ingestion runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Chunk and annotate raw documents",
	RunE:  runProcess,
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate embeddings for processed chunks",
	RunE:  runEmbed,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the vector collection from embedded chunks",
	RunE:  runIndex,
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run process, embed, and index from existing raw documents",
	Long: `Runs the full offline pipeline over data/raw/documents.json (produced
by a prior crawl or extract run): chunking, embedding with verification,
and a full index rebuild with post-build smoke queries.`,
	RunE: runAll,
}

func init() {
	rootCmd.AddCommand(crawlCmd, extractCmd, processCmd, embedCmd, indexCmd, allCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := slog.Default()

	c := crawler.New(crawler.Options{
		SeedURL:        cfg.SeedURL,
		AllowedDomain:  cfg.AllowedDomain,
		MaxPages:       cfg.MaxPages,
		Concurrency:    cfg.CrawlConcurrency,
		RequestsPerMin: cfg.RequestsPerMin,
	}, logger)

	docs, err := c.Crawl(cmd.Context())
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}
	if err := document.SaveJSON(cfg.DataDir, document.RawFile, docs); err != nil {
		return err
	}
	fmt.Printf("Saved %d documents\n", len(docs))
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := slog.Default()

	archive := extract.NewArchive(args[0], cfg.SeedURL, cfg.AllowedDomain, logger)
	docs, err := archive.Extract()
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if err := document.SaveJSON(cfg.DataDir, document.RawFile, docs); err != nil {
		return err
	}
	fmt.Printf("Saved %d documents (%d files walked, %d skipped, %d failed)\n",
		len(docs), archive.Walked, archive.Skipped, archive.Failed)
	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := slog.Default()

	docs, err := document.LoadDocuments(cfg.DataDir)
	if err != nil {
		return err
	}

	pipeline := indexer.NewPipeline(chunker.New(), nil, nil, cfg.IndexBatchSize, logger)
	chunks := pipeline.Process(docs)

	if err := document.SaveJSON(cfg.DataDir, document.ChunksFile, chunks); err != nil {
		return err
	}
	fmt.Printf("Saved %d chunks from %d documents\n", len(chunks), len(docs))
	return nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := slog.Default()

	chunks, err := document.LoadChunks(cfg.DataDir)
	if err != nil {
		return err
	}

	embedder := embedding.NewEmbedder(embedding.NewClient(cfg.EmbeddingServiceURL), cfg.EmbedBatchSize, logger)
	pipeline := indexer.NewPipeline(chunker.New(), embedder, nil, cfg.IndexBatchSize, logger)

	embedded, stats, err := pipeline.Embed(cmd.Context(), chunks)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	if err := document.SaveJSON(cfg.DataDir, document.EmbeddedFile, embedded); err != nil {
		return err
	}
	fmt.Printf("Embedded %d/%d chunks (model %s, %d dimensions, %d batches failed)\n",
		stats.Embedded, stats.Total, stats.Model, stats.Dimension, stats.FailedBatches)
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := slog.Default()

	embedded, err := document.LoadEmbedded(cfg.DataDir)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection, logger)
	if err != nil {
		return fmt.Errorf("connect to qdrant: %w", err)
	}
	defer store.Close()

	embedder := embedding.NewEmbedder(embedding.NewClient(cfg.EmbeddingServiceURL), cfg.EmbedBatchSize, logger)
	pipeline := indexer.NewPipeline(chunker.New(), embedder, store, cfg.IndexBatchSize, logger)

	result, err := pipeline.BuildIndex(cmd.Context(), embedded)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	printIndexResult(result)
	return nil
}

func runAll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := slog.Default()
	start := time.Now()

	docs, err := document.LoadDocuments(cfg.DataDir)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection, logger)
	if err != nil {
		return fmt.Errorf("connect to qdrant: %w", err)
	}
	defer store.Close()

	embedder := embedding.NewEmbedder(embedding.NewClient(cfg.EmbeddingServiceURL), cfg.EmbedBatchSize, logger)
	pipeline := indexer.NewPipeline(chunker.New(), embedder, store, cfg.IndexBatchSize, logger)

	chunks := pipeline.Process(docs)
	if err := document.SaveJSON(cfg.DataDir, document.ChunksFile, chunks); err != nil {
		return err
	}

	embedded, _, err := pipeline.Embed(cmd.Context(), chunks)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	if err := document.SaveJSON(cfg.DataDir, document.EmbeddedFile, embedded); err != nil {
		return err
	}

	result, err := pipeline.BuildIndex(cmd.Context(), embedded)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	printIndexResult(result)
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

func printIndexResult(result *indexer.IndexResult) {
	fmt.Println("Index build complete!")
	fmt.Printf("  Chunks: %d\n", result.TotalChunks)
	fmt.Printf("  Indexed: %d\n", result.Indexed)
	if result.FailedIndex > 0 {
		fmt.Printf("  Failed batches: %d\n", result.FailedIndex)
	}
	fmt.Printf("  Model: %s (%d dimensions)\n", result.Model, result.Dimension)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
}
