package llm

import "context"

type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Client is a plain text generation provider.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
	// Stream calls onChunk for every text delta as it arrives. Returning an
	// error from onChunk stops the stream and is returned as is.
	Stream(ctx context.Context, req Request, onChunk func(string) error) error
}

// Searcher generates with a provider-side web search tool enabled.
type Searcher interface {
	Name() string
	Search(ctx context.Context, req Request) (string, error)
}
