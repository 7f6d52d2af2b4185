package assembly

import domcol "github.com/plenario-ai/plenario/internal/domain/collection"

// Definitions resolves collection definitions for grouping and labelling.
type Definitions interface {
	Collection(name string) (domcol.Collection, bool)
}
