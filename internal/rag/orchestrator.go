// Package rag implements the query-time pipeline as an explicit state
// machine: validate, embed the query, retrieve language-filtered chunks,
// assemble a grounded prompt, generate (blocking or streaming), and fall
// back to a canned localized answer when any middle stage fails.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/harlibot/harlibot/internal/document"
	"github.com/harlibot/harlibot/internal/storage"
)

// maxSources bounds the cited sources returned with an answer.
const maxSources = 3

// Fallback text is streamed in small slices with a short delay so degraded
// responses feel like normal streaming ones.
const (
	fallbackSliceRunes = 10
	fallbackSliceDelay = 20 * time.Millisecond
)

// QueryEmbedder embeds a user question into the same embedding space the
// index was built with.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	Probe(ctx context.Context) (model string, dimension int, err error)
}

// Retriever searches the vector index.
type Retriever interface {
	Search(ctx context.Context, embedding []float32, k int, language document.Language) ([]storage.Result, error)
	Dimension(ctx context.Context) (int, error)
}

// Generator invokes the generative model.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateStream(ctx context.Context, systemPrompt, userPrompt string, onText func(string) error) error
}

// Request is one user question. History is the caller-supplied conversation
// window; anything beyond the last 6 turns is ignored.
type Request struct {
	Message  string
	Language document.Language
	History  []Turn
}

// Source is a citation attached to an answer.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Response is a completed answer. IsDemo marks the degraded fallback path.
type Response struct {
	Text    string
	Sources []Source
	IsDemo  bool
}

// Event is one unit of streamed output: zero or more text events followed
// by exactly one terminal event carrying the sources.
type Event struct {
	Text    string
	Done    bool
	Sources []Source
	IsDemo  bool
}

// Options tune the orchestrator.
type Options struct {
	TopK           int
	MaxQueryLength int
}

// Orchestrator runs the query pipeline. Requests are independent; the only
// shared state is the read-only dependency handles and the memoized
// readiness check.
type Orchestrator struct {
	embedder  QueryEmbedder
	retriever Retriever
	generator Generator
	opts      Options
	logger    *slog.Logger

	readyOnce sync.Once
	readyErr  error
}

// New creates an orchestrator. Zero option fields get the documented
// defaults (top-K 5, max query length 500).
func New(embedder QueryEmbedder, retriever Retriever, generator Generator, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.MaxQueryLength <= 0 {
		opts.MaxQueryLength = 500
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// EnsureReady runs the embedding-model compatibility check under the
// caller's context. It is memoized and race-safe: concurrent first requests
// trigger a single probe. Serving entry points call it at startup to fail
// fast on a model/index mismatch.
func (o *Orchestrator) EnsureReady(ctx context.Context) error {
	o.readyOnce.Do(func() {
		o.readyErr = o.checkCompatibility(ctx)
	})
	return o.readyErr
}

// checkCompatibility compares the embedding service's vector dimension with
// the collection's. A mismatch means query embeddings and index embeddings
// live in different spaces, which silently ruins retrieval, so it is an
// error rather than a warning.
func (o *Orchestrator) checkCompatibility(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	model, dim, err := o.embedder.Probe(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	indexDim, err := o.retriever.Dimension(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVectorStore, err)
	}
	if dim != indexDim {
		return fmt.Errorf("%w: embedding model %q produces %d-dim vectors but index has %d",
			ErrVectorStore, model, dim, indexDim)
	}
	o.logger.Info("embedding space verified", "model", model, "dimension", dim)
	return nil
}

// Validate applies the only hard-failure rules: non-empty message within the
// configured maximum length, and a supported language. It runs before any
// downstream service call.
func (o *Orchestrator) Validate(req Request) error {
	if len(req.Message) == 0 {
		return fmt.Errorf("%w: query cannot be empty", ErrValidation)
	}
	// Character limit, not a byte limit; accented text must not shrink it.
	if utf8.RuneCountInString(req.Message) > o.opts.MaxQueryLength {
		return fmt.Errorf("%w: query too long (max %d characters)", ErrValidation, o.opts.MaxQueryLength)
	}
	if !req.Language.Valid() {
		return fmt.Errorf("%w: unsupported language %q", ErrValidation, req.Language)
	}
	return nil
}

// plan is the output of the pre-generation stages.
type plan struct {
	system  string
	user    string
	sources []Source
}

// prepare runs EmbeddingQuery, Retrieving, and BuildingPrompt. It returns a
// terminal no-results response when retrieval comes back empty, or the
// failed stage alongside the error.
func (o *Orchestrator) prepare(ctx context.Context, req Request) (*plan, *Response, Stage, error) {
	if err := o.EnsureReady(ctx); err != nil {
		// The readiness error already carries its failure class; report the
		// stage that matches it so a store mismatch is not logged as an
		// embedding outage.
		stage := StageEmbeddingQuery
		if errors.Is(err, ErrVectorStore) {
			stage = StageRetrieving
		}
		return nil, nil, stage, err
	}

	embedding, err := o.embedder.EmbedQuery(ctx, req.Message)
	if err != nil {
		return nil, nil, StageEmbeddingQuery, err
	}

	results, err := o.retriever.Search(ctx, embedding, o.opts.TopK, req.Language)
	if err != nil {
		return nil, nil, StageRetrieving, err
	}
	if len(results) == 0 {
		// A normal terminal outcome, not an error.
		return nil, &Response{Text: noResultsMessages[req.Language], Sources: []Source{}}, StageCompleted, nil
	}

	return &plan{
		system:  systemPrompts[req.Language],
		user:    buildPrompt(req.Language, results, req.History, req.Message),
		sources: extractSources(results),
	}, nil, StageGenerating, nil
}

// Answer runs the pipeline with a blocking generation call. Only validation
// errors are returned; every other failure produces the fallback response.
func (o *Orchestrator) Answer(ctx context.Context, req Request) (*Response, error) {
	if err := o.Validate(req); err != nil {
		return nil, err
	}

	plan, terminal, stage, err := o.prepare(ctx, req)
	if err != nil {
		return o.fallback(req.Language, stage, err), nil
	}
	if terminal != nil {
		return terminal, nil
	}

	text, err := o.generator.Generate(ctx, plan.system, plan.user)
	if err != nil {
		return o.fallback(req.Language, StageGenerating, err), nil
	}
	return &Response{Text: text, Sources: plan.sources}, nil
}

// AnswerStream runs the pipeline with streaming generation. The returned
// channel carries text events in arrival order followed by exactly one
// terminal event, then closes. Validation errors are returned immediately
// and nothing is streamed. Cancelling ctx stops production.
func (o *Orchestrator) AnswerStream(ctx context.Context, req Request) (<-chan Event, error) {
	if err := o.Validate(req); err != nil {
		return nil, err
	}

	events := make(chan Event)
	go func() {
		defer close(events)

		plan, terminal, stage, err := o.prepare(ctx, req)
		if err != nil {
			o.logFailure(stage, err)
			o.streamFallback(ctx, events, req.Language)
			return
		}
		if terminal != nil {
			o.emit(ctx, events, Event{Text: terminal.Text})
			o.emit(ctx, events, Event{Done: true, Sources: terminal.Sources})
			return
		}

		err = o.generator.GenerateStream(ctx, plan.system, plan.user, func(text string) error {
			if !o.emit(ctx, events, Event{Text: text}) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				// Client went away; no terminal event to deliver.
				return
			}
			o.logFailure(StageGenerating, err)
			o.streamFallback(ctx, events, req.Language)
			return
		}
		o.emit(ctx, events, Event{Done: true, Sources: plan.sources})
	}()
	return events, nil
}

// fallback builds the degraded response for a failed stage, classifying the
// failure by subsystem for the log.
func (o *Orchestrator) fallback(lang document.Language, stage Stage, err error) *Response {
	o.logFailure(stage, err)
	return &Response{Text: demoMessages[lang], Sources: []Source{}, IsDemo: true}
}

func (o *Orchestrator) logFailure(stage Stage, err error) {
	o.logger.Error("query pipeline failure, serving fallback",
		"stage", string(stage), "class", classify(stage).Error(), "error", err)
}

// streamFallback delivers the demo message in small fixed-size slices with a
// short delay so the degraded path looks like a normal stream, then emits
// the terminal event with the demo flag set.
func (o *Orchestrator) streamFallback(ctx context.Context, events chan<- Event, lang document.Language) {
	runes := []rune(demoMessages[lang])
	for start := 0; start < len(runes); start += fallbackSliceRunes {
		end := min(start+fallbackSliceRunes, len(runes))
		if !o.emit(ctx, events, Event{Text: string(runes[start:end])}) {
			return
		}
		select {
		case <-time.After(fallbackSliceDelay):
		case <-ctx.Done():
			return
		}
	}
	o.emit(ctx, events, Event{Done: true, Sources: []Source{}, IsDemo: true})
}

// emit sends an event unless the consumer is gone.
func (o *Orchestrator) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// extractSources maps the top retrieved chunks, in retrieval order, to
// cited sources.
func extractSources(results []storage.Result) []Source {
	n := min(maxSources, len(results))
	sources := make([]Source, 0, n)
	for _, r := range results[:n] {
		title := r.Metadata.SourceTitle
		if title == "" {
			title = defaultSourceTitle
		}
		sources = append(sources, Source{Title: title, URL: r.Metadata.SourceURL})
	}
	return sources
}
