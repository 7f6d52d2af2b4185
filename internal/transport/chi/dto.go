package chi

import "time"

// ErrorCode identifies an API error class for clients.
type ErrorCode string

const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeEmptyQuestion      ErrorCode = "empty_question"
	ErrorCodeCollectionNotFound ErrorCode = "collection_not_found"
	ErrorCodeBudgetExhausted    ErrorCode = "budget_exhausted"
	ErrorCodeRateLimited        ErrorCode = "rate_limited"
	ErrorCodeEmbeddingProvider  ErrorCode = "embedding_provider_error"
	ErrorCodeGenerationFailed   ErrorCode = "generation_failed"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HistoryTurn is one prior dialogue exchange sent by the client.
type HistoryTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Question string        `json:"question"`
	History  []HistoryTurn `json:"history,omitempty"`
	// Decompose overrides the configured self-ask toggle when present.
	Decompose *bool `json:"decompose,omitempty"`
}

// SubQuestionItem is one self-ask sub-question trace entry.
type SubQuestionItem struct {
	Question   string  `json:"question"`
	Tag        string  `json:"tag"`
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// AskUsage reports per-request token spend.
type AskUsage struct {
	EmbeddingTokens  int `json:"embedding_tokens"`
	GenerationTokens int `json:"generation_tokens"`
}

// AskResponse is the body returned by POST /api/v1/ask.
type AskResponse struct {
	Answer           string            `json:"answer"`
	Failure          string            `json:"failure,omitempty"`
	Topic            string            `json:"topic"`
	SubQuestions     []SubQuestionItem `json:"sub_questions"`
	ContextDocuments int               `json:"context_documents"`
	Usage            AskUsage          `json:"usage"`
}

// RetrieveRequest is the body of POST /api/v1/retrieve and /api/v1/context.
type RetrieveRequest struct {
	Query       string   `json:"query"`
	BaseK       *int     `json:"base_k,omitempty"`
	ResultCap   *int     `json:"result_cap,omitempty"`
	Collections []string `json:"collections,omitempty"`
}

// RetrieveItem is one merged search hit.
type RetrieveItem struct {
	Ref           string  `json:"ref"`
	Text          string  `json:"text"`
	Collection    string  `json:"collection"`
	RawDistance   float64 `json:"raw_distance"`
	AdjustedScore float64 `json:"adjusted_score"`
}

// RetrieveResponse is the body returned by POST /api/v1/retrieve.
type RetrieveResponse struct {
	Items []RetrieveItem `json:"items"`
	Total int            `json:"total"`
}

// SectionItem is one rendered context group.
type SectionItem struct {
	Collection string   `json:"collection"`
	Header     string   `json:"header"`
	Documents  []string `json:"documents"`
}

// ContextResponse is the body returned by POST /api/v1/context.
type ContextResponse struct {
	Context  string        `json:"context"`
	Sections []SectionItem `json:"sections"`
	Total    int           `json:"total"`
}

// CollectionItem describes one discovered collection, ready or skipped.
type CollectionItem struct {
	Name      string  `json:"name"`
	Weight    float64 `json:"weight,omitempty"`
	Category  string  `json:"category,omitempty"`
	Label     string  `json:"label,omitempty"`
	Documents int     `json:"documents"`
	Status    string  `json:"status"`
	Reason    string  `json:"reason,omitempty"`
}

// CollectionListResponse is the body returned by GET /api/v1/collections.
type CollectionListResponse struct {
	Items []CollectionItem `json:"items"`
}

// UsageMetrics reports API consumption within the period.
type UsageMetrics struct {
	Requests         int  `json:"requests"`
	Tokens           int  `json:"tokens"`
	CostMillidollars *int `json:"cost_millidollars,omitempty"`
}

// BudgetStatus reports token budget state.
type BudgetStatus struct {
	TokensLimit     int        `json:"tokens_limit"`
	TokensRemaining int        `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is the body returned by GET /api/v1/usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Usage         UsageMetrics `json:"usage"`
	Budget        BudgetStatus `json:"budget"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Ready   int               `json:"collections_ready"`
	Skipped int               `json:"collections_skipped"`
}
