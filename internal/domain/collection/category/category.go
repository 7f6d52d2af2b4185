package category

import "fmt"

// Category classifies a collection by the granularity of its documents.
// Context assembly emits groups in ascending Rank order so the generator
// sees high-level analysis before per-record detail.
type Category string

const (
	// Insight holds aggregate analytical findings.
	Insight Category = "insight"
	// Summary holds thematic summaries (bills and their digests).
	Summary Category = "summary"
	// Record holds granular per-record data (members, expenses).
	Record Category = "record"
)

// New validates and creates a Category.
func New(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %q", s)
	}
	return c, nil
}

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	return c == Insight || c == Summary || c == Record
}

// Rank returns the fixed assembly position: insight < summary < record.
func (c Category) Rank() int {
	switch c {
	case Insight:
		return 0
	case Summary:
		return 1
	case Record:
		return 2
	default:
		return 3
	}
}

// String returns the category name.
func (c Category) String() string { return string(c) }
