package request

import (
	"fmt"
)

// Retrieval parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length.
	MaxQueryLength = 4096
	DefaultBaseK   = 8
	MaxBaseK       = 100
	DefaultCap     = 40
	MaxCap         = 200
)

// Request is a validated multi-collection retrieval request. BaseK is the
// per-collection candidate count before weight scaling; Cap bounds the
// merged result list. An empty Collections slice targets every ready
// collection.
type Request struct {
	query       string
	baseK       int
	cap         int
	collections []string
}

// New validates and normalizes retrieval parameters.
// Defaults: baseK=8, cap=40. The query may be empty: an empty query is
// still embedded and searched; callers reject blank questions upstream.
func New(query string, baseK, resultCap int, collections []string) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if baseK < 0 || baseK > MaxBaseK {
		return Request{}, fmt.Errorf("base_k must be between 1 and %d", MaxBaseK)
	}
	if baseK == 0 {
		baseK = DefaultBaseK
	}
	if resultCap < 0 || resultCap > MaxCap {
		return Request{}, fmt.Errorf("result_cap must be between 1 and %d", MaxCap)
	}
	if resultCap == 0 {
		resultCap = DefaultCap
	}
	seen := make(map[string]bool, len(collections))
	for _, name := range collections {
		if name == "" {
			return Request{}, fmt.Errorf("collection name must not be empty")
		}
		if seen[name] {
			return Request{}, fmt.Errorf("duplicate collection name: %s", name)
		}
		seen[name] = true
	}

	return Request{
		query:       query,
		baseK:       baseK,
		cap:         resultCap,
		collections: collections,
	}, nil
}

// Query returns the query text.
func (r Request) Query() string { return r.query }

// BaseK returns the per-collection candidate count before weight scaling.
func (r Request) BaseK() int { return r.baseK }

// Cap returns the overall merged result cap.
func (r Request) Cap() int { return r.cap }

// Collections returns the requested subset (empty = all ready collections).
func (r Request) Collections() []string { return r.collections }

// WithBaseK returns a copy with base_k replaced (used for topic boosts).
func (r Request) WithBaseK(k int) Request {
	if k < 1 {
		k = 1
	}
	if k > MaxBaseK {
		k = MaxBaseK
	}
	r.baseK = k
	return r
}

// WithQuery returns a copy with the query text replaced (sub-questions
// reuse the top-level request bounds).
func (r Request) WithQuery(q string) Request {
	r.query = q
	return r
}
