package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const webSearchMaxUses = 5

type AnthropicClient struct {
	client *anthropic.Client
	model  anthropic.Model
	retry  RetryPolicy
}

func NewAnthropicClient(apiKey, model string, retry RetryPolicy, opts ...option.RequestOption) *AnthropicClient {
	// RetryPolicy owns retries.
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := anthropic.NewClient(opts...)

	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicClient{
		client: &client,
		model:  m,
		retry:  retry,
	}
}

func (c *AnthropicClient) Name() string {
	return "anthropic"
}

func (c *AnthropicClient) params(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	return params
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	return c.generate(ctx, c.params(req))
}

func (c *AnthropicClient) Search(ctx context.Context, req Request) (string, error) {
	params := c.params(req)
	params.Tools = []anthropic.ToolUnionParam{
		{OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
			MaxUses: anthropic.Int(webSearchMaxUses),
		}},
	}
	return c.generate(ctx, params)
}

func (c *AnthropicClient) generate(ctx context.Context, params anthropic.MessageNewParams) (string, error) {
	return withRetry(ctx, c.retry, func() (string, error) {
		resp, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return "", c.classify(err)
		}

		// Search responses interleave tool blocks with text blocks.
		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		if sb.Len() == 0 {
			return "", fmt.Errorf("no response from anthropic")
		}
		return sb.String(), nil
	})
}

func (c *AnthropicClient) Stream(ctx context.Context, req Request, onChunk func(string) error) error {
	stream := c.client.Messages.NewStreaming(ctx, c.params(req))
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
		if !ok || text.Text == "" {
			continue
		}
		if err := onChunk(text.Text); err != nil {
			return err
		}
	}

	if err := stream.Err(); err != nil {
		return c.classify(err)
	}
	return nil
}

func (c *AnthropicClient) classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return rateLimited(c.Name(), err)
	}
	if strings.Contains(err.Error(), "rate_limit") {
		return rateLimited(c.Name(), err)
	}
	return fmt.Errorf("anthropic API error: %w", err)
}
