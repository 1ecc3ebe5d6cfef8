// Package main runs the HarliBot chat server: a bilingual question-answering
// API over the indexed city content, with streaming and JSON responses.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/harlibot/harlibot/internal/config"
	"github.com/harlibot/harlibot/internal/embedding"
	"github.com/harlibot/harlibot/internal/llm"
	"github.com/harlibot/harlibot/internal/rag"
	"github.com/harlibot/harlibot/internal/server"
	"github.com/harlibot/harlibot/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection, logger)
	if err != nil {
		return fmt.Errorf("connect to qdrant: %w", err)
	}
	defer store.Close()

	embedder := embedding.NewEmbedder(embedding.NewClient(cfg.EmbeddingServiceURL), cfg.EmbedBatchSize, logger)
	generator := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, llm.Options{
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		MaxTokens:   cfg.MaxTokens,
	})

	orchestrator := rag.New(embedder, store, generator, rag.Options{
		TopK:           cfg.TopK,
		MaxQueryLength: cfg.MaxQueryLength,
	}, logger)

	// Refuse to serve against an index built with a different embedding
	// model. Catching this at boot beats silently irrelevant answers.
	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = orchestrator.EnsureReady(bootCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("readiness check failed: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(orchestrator, store, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chat server listening", "port", cfg.Port, "collection", cfg.Collection)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
