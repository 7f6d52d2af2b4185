package result

import "github.com/plenario-ai/plenario/internal/domain/document"

// Match is a raw per-collection hit: the stored document and its index
// distance before any weighting. The registry produces matches; the
// retrieval coordinator turns them into Results by applying the source
// collection's weight.
type Match struct {
	Doc      document.Document
	Distance float64
}
