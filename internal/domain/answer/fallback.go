package answer

// User-facing fallback texts for degraded paths. The wording is a fixed
// contract: transports and the embedded engine return these verbatim.
const (
	// FallbackEmbedding replaces the answer when the question could not be
	// vectorized (provider error, rate limit, budget).
	FallbackEmbedding = "Desculpe, não consegui processar sua pergunta no momento. Tente novamente em instantes."

	// FallbackGeneration replaces the answer when the chat completion failed.
	FallbackGeneration = "Desculpe, ocorreu um erro ao gerar a resposta. Tente novamente em instantes."
)
