package ai

import "context"

// Request is one chat-completion call. Extraction callers leave
// Temperature at 0 so repeated runs of the same page are deterministic.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Usage carries the provider's token counters for cost accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Result is the model's reply plus usage counters.
type Result struct {
	Content string
	Usage   Usage
}

// Provider sends a chat request to an LLM and returns the raw reply.
type Provider interface {
	Complete(ctx context.Context, req Request) (Result, error)
}
