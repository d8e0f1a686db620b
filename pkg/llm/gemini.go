package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements Client and Searcher on Google GenAI. Search uses
// the GoogleSearch grounding tool.
type GeminiClient struct {
	client *genai.Client
	model  string
	retry  RetryPolicy
}

func NewGeminiClient(ctx context.Context, apiKey, model string, retry RetryPolicy) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiClient{
		client: client,
		model:  model,
		retry:  retry,
	}, nil
}

func (c *GeminiClient) Name() string {
	return "gemini"
}

func (c *GeminiClient) config(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	return cfg
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	return c.generate(ctx, req, c.config(req))
}

func (c *GeminiClient) Search(ctx context.Context, req Request) (string, error) {
	cfg := c.config(req)
	cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	return c.generate(ctx, req, cfg)
}

func (c *GeminiClient) generate(ctx context.Context, req Request, cfg *genai.GenerateContentConfig) (string, error) {
	return withRetry(ctx, c.retry, func() (string, error) {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
		if err != nil {
			return "", c.classify(err)
		}

		text := responseText(resp)
		if text == "" {
			return "", fmt.Errorf("no response from gemini")
		}
		return text, nil
	})
}

func (c *GeminiClient) Stream(ctx context.Context, req Request, onChunk func(string) error) error {
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(req.Prompt), c.config(req)) {
		if err != nil {
			return c.classify(err)
		}
		if text := responseText(resp); text != "" {
			if err := onChunk(text); err != nil {
				return err
			}
		}
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func (c *GeminiClient) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return rateLimited(c.Name(), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code == http.StatusTooManyRequests {
		return rateLimited(c.Name(), err)
	}
	return fmt.Errorf("gemini generate failed: %w", err)
}
