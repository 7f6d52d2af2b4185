package plenario

import "context"

// Generator produces answer text from an assembled prompt. Supply one via
// WithGenerator to replace the built-in OpenAI chat client.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationTurn is one prior dialogue exchange included in the prompt.
type GenerationTurn struct {
	Role string // "user" or "assistant"
	Text string
}

// GenerationRequest describes one chat completion call.
type GenerationRequest struct {
	System      string
	History     []GenerationTurn
	User        string
	MaxTokens   int
	Temperature float32
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
