package selfask

import (
	"context"

	"github.com/plenario-ai/plenario/internal/domain/search/request"
	"github.com/plenario-ai/plenario/internal/domain/search/result"
)

// Retriever runs one multi-collection retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, req request.Request) ([]result.Result, error)
}
