// Package llm wraps the generative model service behind blocking and
// streaming generation calls. Any OpenAI-compatible chat endpoint works;
// the base URL and model are injected configuration.
package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options are the sampling parameters for generation.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Client generates answers with a chat-completion model.
type Client struct {
	client openai.Client
	model  string
	opts   Options
}

// NewClient creates a generation client. baseURL may be empty for the
// default API endpoint.
func NewClient(baseURL, apiKey, model string, opts Options) *Client {
	var reqOpts []option.RequestOption
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	return &Client{
		client: openai.NewClient(reqOpts...),
		model:  model,
		opts:   opts,
	}
}

func (c *Client) params(systemPrompt, userPrompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(c.opts.Temperature),
		TopP:        openai.Float(c.opts.TopP),
		MaxTokens:   openai.Int(int64(c.opts.MaxTokens)),
	}
}

// Generate performs a single blocking generation call.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(systemPrompt, userPrompt))
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generation returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateStream streams the answer, calling onText for every text fragment
// in arrival order. onText returning an error stops consumption, as does
// context cancellation; the model call is abandoned either way.
func (c *Client) GenerateStream(ctx context.Context, systemPrompt, userPrompt string, onText func(string) error) error {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(systemPrompt, userPrompt))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			if err := onText(text); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("stream response: %w", err)
	}
	return nil
}
