// Package assembly turns ranked search results into the generator-facing
// context block: one labelled group per source collection, emitted in a
// fixed category order that never follows scores.
package assembly

import (
	"sort"
	"strings"

	domcol "github.com/plenario-ai/plenario/internal/domain/collection"
	"github.com/plenario-ai/plenario/internal/domain/search/result"
)

// Section is one collection's contribution to the assembled context.
type Section struct {
	Collection string
	Header     string
	Texts      []string
}

// Context is the evidence block handed to the generator. Assembled is the
// rendered text; Sections keep the structure for transport responses.
type Context struct {
	Sections  []Section
	Assembled string
	Total     int
}

// Empty reports whether no evidence was assembled.
func (c Context) Empty() bool { return c.Total == 0 }

// Service groups results by source collection.
type Service struct {
	defs Definitions
}

// New creates a context assembler.
func New(defs Definitions) *Service {
	return &Service{defs: defs}
}

type group struct {
	col   domcol.Collection
	texts []string
}

// Assemble groups results by collection, preserving retrieval rank inside
// each group, and renders the groups in category order (insight → summary →
// record; within a category descending weight, then name). Every result is
// placed exactly once; unknown collections fall back to the complementary-
// data definition. Assembly never fails.
func (s *Service) Assemble(results []result.Result) Context {
	if len(results) == 0 {
		return Context{}
	}

	groups := make(map[string]*group)
	order := make([]*group, 0, 4)
	for _, r := range results {
		g, ok := groups[r.Collection()]
		if !ok {
			col, found := s.defs.Collection(r.Collection())
			if !found {
				// Дрейф реестра: неизвестный источник идёт в хвост как
				// рядовые данные.
				col = domcol.Fallback(r.Collection())
			}
			g = &group{col: col}
			groups[r.Collection()] = g
			order = append(order, g)
		}
		g.texts = append(g.texts, r.Document().Text())
	}

	sort.Slice(order, func(i, j int) bool { return order[i].col.Before(order[j].col) })

	sections := make([]Section, 0, len(order))
	parts := make([]string, 0, len(order))
	total := 0
	for _, g := range order {
		header := "=== " + g.col.Label() + " ==="
		sections = append(sections, Section{
			Collection: g.col.Name(),
			Header:     header,
			Texts:      g.texts,
		})
		parts = append(parts, header+"\n"+strings.Join(g.texts, "\n\n"))
		total += len(g.texts)
	}

	return Context{
		Sections:  sections,
		Assembled: strings.Join(parts, "\n\n"),
		Total:     total,
	}
}
