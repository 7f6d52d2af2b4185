package plenario

import "github.com/plenario-ai/plenario/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyQuestion          = domain.ErrEmptyQuestion
	ErrCollectionNotFound     = domain.ErrCollectionNotFound
	ErrCollectionUnavailable  = domain.ErrCollectionUnavailable
	ErrIndexCorrupted         = domain.ErrIndexCorrupted
	ErrIndexMisaligned        = domain.ErrIndexMisaligned
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEmbeddingRateLimited   = domain.ErrEmbeddingRateLimited
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrTokenBudgetExceeded    = domain.ErrTokenBudgetExceeded
	ErrGenerationFailed       = domain.ErrGenerationFailed
)
