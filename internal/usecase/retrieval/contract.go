package retrieval

import (
	"context"

	"github.com/plenario-ai/plenario/internal/domain"
	domcol "github.com/plenario-ai/plenario/internal/domain/collection"
	"github.com/plenario-ai/plenario/internal/domain/search/result"
)

// Catalog defines the collection registry contract for retrieval.
type Catalog interface {
	// Collections returns every ready collection definition in name order.
	Collections() []domcol.Collection

	// Collection returns one ready collection definition.
	Collection(name string) (domcol.Collection, bool)

	// Search runs a k-NN query against one ready collection.
	Search(ctx context.Context, name string, vector []float32, topK int) ([]result.Match, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
