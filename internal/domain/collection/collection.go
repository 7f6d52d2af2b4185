package collection

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/plenario-ai/plenario/internal/domain/collection/category"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Collection is an independently indexed, named set of documents with a
// retrieval priority weight (immutable value object). Larger weight means
// higher priority: adjusted scores divide raw distance by the weight, and
// candidate volume scales up with it.
type Collection struct {
	name     string
	weight   float64
	category category.Category
	label    string
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// New validates and creates a Collection.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. Weight: > 0. Empty label defaults to
// the complementary-data header for the name.
func New(name string, weight float64, cat category.Category, label string) (Collection, error) {
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if weight <= 0 {
		return Collection{}, fmt.Errorf("collection weight must be positive, got %v", weight)
	}
	if !cat.IsValid() {
		return Collection{}, fmt.Errorf("invalid category for collection %q: %q", name, cat)
	}
	if label == "" {
		label = DefaultLabel(name)
	}
	return Collection{name: name, weight: weight, category: cat, label: label}, nil
}

// Reconstruct creates a Collection without validation (registry hydration).
func Reconstruct(name string, weight float64, cat category.Category, label string) Collection {
	return Collection{name: name, weight: weight, category: cat, label: label}
}

// DefaultLabel returns the context header used for collections without a
// configured label.
func DefaultLabel(name string) string {
	return "DADOS COMPLEMENTARES: " + strings.ToUpper(name)
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Weight returns the retrieval priority weight.
func (c Collection) Weight() float64 { return c.weight }

// Category returns the assembly category.
func (c Collection) Category() category.Category { return c.category }

// Label returns the context group header text.
func (c Collection) Label() string { return c.label }

// Before reports whether c precedes other in the fixed assembly order:
// category rank, then descending weight, then name.
func (c Collection) Before(other Collection) bool {
	if c.category.Rank() != other.category.Rank() {
		return c.category.Rank() < other.category.Rank()
	}
	if c.weight != other.weight {
		return c.weight > other.weight
	}
	return c.name < other.name
}
