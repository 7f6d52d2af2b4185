package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuestion signals a blank question at the API boundary.
	ErrEmptyQuestion = errors.New("empty question")
	// ErrCollectionNotFound signals a request for an unregistered collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrCollectionUnavailable signals a collection skipped at load time.
	ErrCollectionUnavailable = errors.New("collection unavailable")
	// ErrIndexCorrupted signals an unreadable vector index artifact.
	ErrIndexCorrupted = errors.New("index artifact corrupted")
	// ErrIndexMisaligned signals vector count != document count in an artifact pair.
	ErrIndexMisaligned = errors.New("index and data artifacts misaligned")
	// ErrDimensionMismatch signals a query vector of the wrong dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingRateLimited signals a rate limit hit at the embedding provider.
	ErrEmbeddingRateLimited = errors.New("embedding provider rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted provider quota.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrTokenBudgetExceeded signals an exhausted local token budget.
	ErrTokenBudgetExceeded = errors.New("token budget exceeded")
	// ErrGenerationFailed signals an answer generator failure.
	ErrGenerationFailed = errors.New("answer generation failed")

	// ErrNotReady signals an engine used before or after its lifecycle.
	ErrNotReady = errors.New("engine not ready")
)

// CollectionError wraps ErrCollectionUnavailable with the collection name
// and the load-time reason.
type CollectionError struct {
	Name   string
	Reason string
	Err    error
}

func (e *CollectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("collection %q unavailable: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("collection %q unavailable: %s", e.Name, e.Reason)
}

func (e *CollectionError) Unwrap() error { return ErrCollectionUnavailable }

// NewCollectionError creates a collection unavailability error.
func NewCollectionError(name, reason string, err error) error {
	return &CollectionError{Name: name, Reason: reason, Err: err}
}
