// Package embedding talks to the external embedding service used by both
// ingestion and query time. Embedding-space consistency is a correctness
// invariant of retrieval, so everything goes through this one client.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrInvalidResponse marks an embedding service reply that violates the
// contract (wrong vector count or inconsistent dimension).
var ErrInvalidResponse = errors.New("invalid embedding service response")

// EmbedRequest is the wire request: POST /embed {"texts": [...]}.
type EmbedRequest struct {
	Texts []string `json:"texts"`
}

// EmbedResponse is the wire response. The service must return one vector per
// input text, in order, all of the same dimension.
type EmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model"`
	Dimension  int         `json:"dimension"`
}

// Client is an HTTP client for the embedding service.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the given /embed endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// EmbedTexts embeds a batch of texts, retrying transient failures with
// exponential backoff. Client errors other than 429 are permanent.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) (*EmbedResponse, error) {
	var result *EmbedResponse

	operation := func() error {
		resp, err := c.post(ctx, texts)
		if err != nil {
			return err
		}
		result = resp
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, texts []string) (*EmbedResponse, error) {
	body, err := json.Marshal(EmbedRequest{Texts: texts})
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err // network errors are retryable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, msg)
		// Rate limits and server errors are retryable, other client errors
		// are permanent.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	var parsed EmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if err := validate(&parsed, len(texts)); err != nil {
		return nil, backoff.Permanent(err)
	}
	return &parsed, nil
}

func validate(resp *EmbedResponse, want int) error {
	if len(resp.Embeddings) != want {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrInvalidResponse, len(resp.Embeddings), want)
	}
	for i, vec := range resp.Embeddings {
		if len(vec) != resp.Dimension {
			return fmt.Errorf("%w: vector %d has %d dimensions, declared %d",
				ErrInvalidResponse, i, len(vec), resp.Dimension)
		}
	}
	return nil
}
