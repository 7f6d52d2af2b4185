package result

import "github.com/plenario-ai/plenario/internal/domain/document"

// Result is a single cross-collection search hit. Created per request,
// never persisted. AdjustedScore divides raw distance by the source
// collection's priority weight, so results from more important collections
// rank earlier for equal raw distance; smaller is better throughout.
type Result struct {
	doc           document.Document
	rawDistance   float64
	adjustedScore float64
	collection    string
}

// New creates a search result.
func New(doc document.Document, rawDistance, adjustedScore float64, collection string) Result {
	return Result{
		doc:           doc,
		rawDistance:   rawDistance,
		adjustedScore: adjustedScore,
		collection:    collection,
	}
}

// Document returns the matched document.
func (r Result) Document() document.Document { return r.doc }

// RawDistance returns the index distance before weighting.
func (r Result) RawDistance() float64 { return r.rawDistance }

// AdjustedScore returns the weighted ranking score (smaller ranks earlier).
func (r Result) AdjustedScore() float64 { return r.adjustedScore }

// Collection returns the source collection name.
func (r Result) Collection() string { return r.collection }

// Less reports whether r ranks ahead of other under the deterministic
// total order: adjusted score, raw distance, collection name, ref.
func (r Result) Less(other Result) bool {
	if r.adjustedScore != other.adjustedScore {
		return r.adjustedScore < other.adjustedScore
	}
	if r.rawDistance != other.rawDistance {
		return r.rawDistance < other.rawDistance
	}
	if r.collection != other.collection {
		return r.collection < other.collection
	}
	return r.doc.Ref() < other.doc.Ref()
}
