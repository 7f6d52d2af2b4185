package domain

import "context"

// Generator is the answer generation contract. The model is an opaque
// external service; any failure maps to ErrGenerationFailed and the caller
// decides how to surface it.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationTurn is one prior conversation exchange included in the prompt.
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
