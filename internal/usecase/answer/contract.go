package answer

import (
	"context"

	domselfask "github.com/plenario-ai/plenario/internal/domain/selfask"
	"github.com/plenario-ai/plenario/internal/domain/search/request"
	"github.com/plenario-ai/plenario/internal/domain/search/result"
	"github.com/plenario-ai/plenario/internal/usecase/assembly"
)

// Retriever runs one multi-collection retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, req request.Request) ([]result.Result, error)
}

// Assembler renders ranked results into the generator context.
type Assembler interface {
	Assemble(results []result.Result) assembly.Context
}

// Decomposer runs the self-ask loop for a question.
type Decomposer interface {
	Run(ctx context.Context, question string) (domselfask.Decomposition, error)

	// Threshold returns the acceptance threshold used for the digest.
	Threshold() float64
}
