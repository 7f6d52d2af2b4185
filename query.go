package plenario

import (
	"context"
	"fmt"
	"time"

	"github.com/plenario-ai/plenario/internal/domain/search/request"
)

// QueryBuilder accumulates retrieval parameters for one query. Build it
// with Engine.Query, finish with Do.
type QueryBuilder struct {
	engine      *Engine
	text        string
	baseK       int
	resultCap   int
	collections []string
}

// Query starts a retrieval against the ready collections. Parameters left
// unset take the engine's configured defaults.
func (e *Engine) Query(text string) *QueryBuilder {
	return &QueryBuilder{engine: e, text: text}
}

// BaseK sets the per-collection candidate count before weight scaling.
func (q *QueryBuilder) BaseK(k int) *QueryBuilder {
	q.baseK = k
	return q
}

// Cap bounds the merged result list.
func (q *QueryBuilder) Cap(n int) *QueryBuilder {
	q.resultCap = n
	return q
}

// Collections restricts retrieval to the named collections. Unknown names
// fail the query with ErrCollectionNotFound.
func (q *QueryBuilder) Collections(names ...string) *QueryBuilder {
	q.collections = names
	return q
}

// Do embeds the query once, fans out across the target collections and
// returns the weighted merge, best first.
func (q *QueryBuilder) Do(ctx context.Context) (_ []Result, err error) {
	e := q.engine
	start := time.Now()
	defer func() { e.obs.observe("retrieve", start, err) }()

	baseK := q.baseK
	if baseK == 0 {
		baseK = e.baseK
	}
	resultCap := q.resultCap
	if resultCap == 0 {
		resultCap = e.resultCap
	}

	req, err := newRequest(q.text, baseK, resultCap, q.collections)
	if err != nil {
		return nil, err
	}
	results, err := e.retriever.Retrieve(ctx, req)
	if err != nil {
		return nil, err
	}
	return toResults(results), nil
}

func newRequest(query string, baseK, resultCap int, collections []string) (request.Request, error) {
	req, err := request.New(query, baseK, resultCap, collections)
	if err != nil {
		return request.Request{}, fmt.Errorf("plenario: %w", err)
	}
	return req, nil
}
