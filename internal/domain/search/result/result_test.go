package result

import (
	"testing"

	"github.com/plenario-ai/plenario/internal/domain/document"
)

func TestNew(t *testing.T) {
	doc := document.Reconstruct("prop-42", "Projeto de lei sobre saúde pública.", "proposicoes", nil)
	r := New(doc, 0.8, 0.32, "proposicoes")

	if r.Document().Ref() != "prop-42" {
		t.Errorf("Document().Ref() = %q", r.Document().Ref())
	}
	if r.RawDistance() != 0.8 {
		t.Errorf("RawDistance() = %v", r.RawDistance())
	}
	if r.AdjustedScore() != 0.32 {
		t.Errorf("AdjustedScore() = %v", r.AdjustedScore())
	}
	if r.Collection() != "proposicoes" {
		t.Errorf("Collection() = %q", r.Collection())
	}
}

func TestLess_AdjustedScoreFirst(t *testing.T) {
	a := New(document.Reconstruct("a", "t", "x", nil), 0.9, 0.3, "x")
	b := New(document.Reconstruct("b", "t", "y", nil), 0.5, 0.5, "y")

	// a has the larger raw distance but the smaller adjusted score.
	if !a.Less(b) {
		t.Error("smaller adjusted score must rank first")
	}
	if b.Less(a) {
		t.Error("ordering must be asymmetric")
	}
}

func TestLess_TieBreaks(t *testing.T) {
	a := New(document.Reconstruct("a", "t", "x", nil), 0.4, 0.5, "x")
	b := New(document.Reconstruct("b", "t", "x", nil), 0.5, 0.5, "x")
	if !a.Less(b) {
		t.Error("equal adjusted scores break ties by raw distance")
	}

	c := New(document.Reconstruct("c", "t", "alfa", nil), 0.5, 0.5, "alfa")
	d := New(document.Reconstruct("c", "t", "beta", nil), 0.5, 0.5, "beta")
	if !c.Less(d) {
		t.Error("equal distances break ties by collection name")
	}

	e := New(document.Reconstruct("e1", "t", "x", nil), 0.5, 0.5, "x")
	f := New(document.Reconstruct("e2", "t", "x", nil), 0.5, 0.5, "x")
	if !e.Less(f) {
		t.Error("final tie break is the document ref")
	}
}
