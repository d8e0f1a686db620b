package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAIClient struct {
	client *openai.Client
	model  openai.ChatModel
	retry  RetryPolicy
}

func NewOpenAIClient(apiKey, model string, retry RetryPolicy, opts ...option.RequestOption) *OpenAIClient {
	// RetryPolicy owns retries.
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := openai.NewClient(opts...)

	m := openai.ChatModel(model)
	if model == "" {
		m = openai.ChatModelGPT4_1Mini
	}

	return &OpenAIClient{
		client: &client,
		model:  m,
		retry:  retry,
	}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) params(req Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	return params
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	params := c.params(req)

	return withRetry(ctx, c.retry, func() (string, error) {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", c.classify(err)
		}

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no response from openai")
		}

		return resp.Choices[0].Message.Content, nil
	})
}

func (c *OpenAIClient) Stream(ctx context.Context, req Request, onChunk func(string) error) error {
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(req))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onChunk(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}

	if err := stream.Err(); err != nil {
		return c.classify(err)
	}
	return nil
}

func (c *OpenAIClient) classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return rateLimited(c.Name(), err)
	}
	return fmt.Errorf("openai API error: %w", err)
}
