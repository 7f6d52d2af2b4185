// Package registry holds the immutable set of collections loaded at startup.
// Each ready collection owns a flat vector index and its ordinally aligned
// document list; collections that fail to load are retained as skipped
// status entries and never abort startup.
package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/plenario-ai/plenario/internal/artifact"
	"github.com/plenario-ai/plenario/internal/domain"
	"github.com/plenario-ai/plenario/internal/domain/collection"
	"github.com/plenario-ai/plenario/internal/domain/collection/category"
	"github.com/plenario-ai/plenario/internal/domain/document"
	"github.com/plenario-ai/plenario/internal/domain/search/result"
	"github.com/plenario-ai/plenario/internal/index"
	"github.com/plenario-ai/plenario/internal/metrics"
)

// Override adjusts a collection definition from configuration. Zero fields
// keep the built-in (or fallback) value.
type Override struct {
	Weight   float64
	Category string
	Label    string
}

// Config holds registry construction settings.
type Config struct {
	DataDir   string
	Overrides map[string]Override
	Logger    *zap.Logger
}

// Entry is one ready collection: definition, index handle and documents.
// Immutable after construction.
type Entry struct {
	col  collection.Collection
	idx  *index.Flat
	docs []document.Document
}

// Collection returns the collection definition.
func (e *Entry) Collection() collection.Collection { return e.col }

// Size returns the number of stored documents.
func (e *Entry) Size() int { return len(e.docs) }

// Document returns the document at the given index slot.
func (e *Entry) Document(ordinal int) (document.Document, bool) {
	if ordinal < 0 || ordinal >= len(e.docs) {
		return document.Document{}, false
	}
	return e.docs[ordinal], true
}

// Status describes one discovered collection's load outcome.
type Status struct {
	Name      string
	Ready     bool
	Documents int
	Reason    string
}

// Registry is the startup-built collection set. Read-only after New, safe
// for concurrent use.
type Registry struct {
	entries  map[string]*Entry
	ordered  []*Entry
	statuses []Status
}

// New scans the data directory and loads every discovered artifact pair.
// A broken pair is skipped and logged; only a failed directory scan is fatal.
func New(cfg Config) (*Registry, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	names, err := artifact.Discover(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("discover collections: %w", err)
	}

	r := &Registry{entries: make(map[string]*Entry, len(names))}
	for _, name := range names {
		entry, err := loadEntry(cfg.DataDir, name, cfg.Overrides)
		if err != nil {
			logger.Warn("Collection skipped",
				zap.String("collection", name),
				zap.Error(err),
			)
			r.statuses = append(r.statuses, Status{Name: name, Reason: err.Error()})
			metrics.CollectionsSkippedTotal.Inc()
			continue
		}

		r.entries[name] = entry
		r.ordered = append(r.ordered, entry)
		r.statuses = append(r.statuses, Status{
			Name:      name,
			Ready:     true,
			Documents: entry.Size(),
		})

		logger.Info("Collection loaded",
			zap.String("collection", name),
			zap.Int("documents", entry.Size()),
			zap.Int("dimensions", entry.idx.Dim()),
			zap.Float64("weight", entry.col.Weight()),
			zap.String("category", entry.col.Category().String()),
		)
	}

	return r, nil
}

func loadEntry(dir, name string, overrides map[string]Override) (*Entry, error) {
	pair, err := artifact.Load(dir, name)
	if err != nil {
		return nil, err
	}

	idx, err := index.New(pair.Dim, pair.Vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	col, err := definitionFor(name, overrides)
	if err != nil {
		return nil, err
	}

	return &Entry{col: col, idx: idx, docs: pair.Documents}, nil
}

// definitionFor resolves the collection definition: built-in defaults,
// overridden field by field from config, falling back to the lowest-priority
// record definition for unknown names.
func definitionFor(name string, overrides map[string]Override) (collection.Collection, error) {
	def, ok := collection.Known(name)
	if !ok {
		def = collection.Fallback(name)
	}

	o, ok := overrides[name]
	if !ok {
		return def, nil
	}

	weight := def.Weight()
	if o.Weight > 0 {
		weight = o.Weight
	}
	cat := def.Category()
	if o.Category != "" {
		parsed, err := category.New(o.Category)
		if err != nil {
			return collection.Collection{}, fmt.Errorf("override for %q: %w", name, err)
		}
		cat = parsed
	}
	label := def.Label()
	if o.Label != "" {
		label = o.Label
	}

	return collection.New(name, weight, cat, label)
}

// Entries returns the ready collections in name order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Entry returns one ready collection by name.
func (r *Registry) Entry(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Collections returns the ready collection definitions in name order.
func (r *Registry) Collections() []collection.Collection {
	out := make([]collection.Collection, len(r.ordered))
	for i, e := range r.ordered {
		out[i] = e.col
	}
	return out
}

// Collection returns one ready collection definition by name.
func (r *Registry) Collection(name string) (collection.Collection, bool) {
	e, ok := r.entries[name]
	if !ok {
		return collection.Collection{}, false
	}
	return e.col, true
}

// Statuses returns load outcomes for every discovered collection, ready and
// skipped alike, in name order.
func (r *Registry) Statuses() []Status {
	out := make([]Status, len(r.statuses))
	copy(out, r.statuses)
	return out
}

// Ready returns the number of collections available for search.
func (r *Registry) Ready() int { return len(r.ordered) }

// Skipped returns the number of discovered collections that failed to load.
func (r *Registry) Skipped() int { return len(r.statuses) - len(r.ordered) }

// Search runs a k-NN query against one ready collection and maps hit
// ordinals back to documents.
func (r *Registry) Search(ctx context.Context, name string, vec []float32, k int) ([]result.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
	}

	hits, err := entry.idx.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}

	matches := make([]result.Match, 0, len(hits))
	for _, h := range hits {
		doc, ok := entry.Document(h.Ordinal)
		if !ok {
			return nil, fmt.Errorf("collection %q: slot %d has no document: %w",
				name, h.Ordinal, domain.ErrIndexMisaligned)
		}
		matches = append(matches, result.Match{Doc: doc, Distance: h.Distance})
	}
	return matches, nil
}
