package llm

import (
	"context"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Result struct {
	Text     string
	Usage    Usage
	Duration time.Duration
}

type Request struct {
	Model     string
	Messages  []Message
	ForceJSON bool
}

// Client is the minimal surface the engine needs from a text-generation
// provider. Implementations must honor ctx cancellation.
type Client interface {
	Chat(ctx context.Context, req Request) (Result, error)
}
