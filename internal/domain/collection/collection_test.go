package collection

import (
	"strings"
	"testing"

	"github.com/plenario-ai/plenario/internal/domain/collection/category"
)

func TestNew_Valid(t *testing.T) {
	col, err := New("sumarizacoes", 3.0, category.Summary, "SUMARIZAÇÕES DE PROPOSIÇÕES")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "sumarizacoes" {
		t.Errorf("Name() = %q, want %q", col.Name(), "sumarizacoes")
	}
	if col.Weight() != 3.0 {
		t.Errorf("Weight() = %v, want 3.0", col.Weight())
	}
	if col.Category() != category.Summary {
		t.Errorf("Category() = %q, want summary", col.Category())
	}
	if col.Label() != "SUMARIZAÇÕES DE PROPOSIÇÕES" {
		t.Errorf("Label() = %q", col.Label())
	}
}

func TestNew_EmptyLabelDefaults(t *testing.T) {
	col, err := New("votacoes", 1.0, category.Record, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Label() != "DADOS COMPLEMENTARES: VOTACOES" {
		t.Errorf("Label() = %q, want complementary default", col.Label())
	}
}

func TestNew_EmptyName(t *testing.T) {
	_, err := New("", 1.0, category.Record, "")
	if err == nil {
		t.Fatal("expected error for empty name")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want 'required'", err)
	}
}

func TestNew_NameTooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", 65), 1.0, category.Record, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "too long") {
		t.Errorf("error = %q, want 'too long'", err)
	}
}

func TestNew_InvalidNameChars(t *testing.T) {
	names := []string{"has space", "слово", "col.name", "col/name", "col@name"}
	for _, name := range names {
		_, err := New(name, 1.0, category.Record, "")
		if err == nil {
			t.Errorf("expected error for name %q", name)
		}
	}
}

func TestNew_ValidNameChars(t *testing.T) {
	names := []string{"abc", "ABC-123", "with_underscore", "a-b-c", "X"}
	for _, name := range names {
		_, err := New(name, 1.0, category.Record, "")
		if err != nil {
			t.Errorf("New(%q) unexpected error: %v", name, err)
		}
	}
}

func TestNew_NonPositiveWeight(t *testing.T) {
	for _, w := range []float64{0, -1, -0.5} {
		_, err := New("col", w, category.Record, "")
		if err == nil {
			t.Errorf("expected error for weight %v", w)
		}
	}
}

func TestNew_InvalidCategory(t *testing.T) {
	_, err := New("col", 1.0, category.Category("aggregate"), "")
	if err == nil {
		t.Fatal("expected error for invalid category")
	}
	if !strings.Contains(err.Error(), "category") {
		t.Errorf("error = %q, want 'category'", err)
	}
}

func TestBefore_CategoryOrder(t *testing.T) {
	insight := Reconstruct("insights_despesas", 2.0, category.Insight, "")
	summary := Reconstruct("sumarizacoes", 3.0, category.Summary, "")
	record := Reconstruct("deputados", 1.0, category.Record, "")

	// Категория важнее веса: insight идёт первым даже с меньшим весом.
	if !insight.Before(summary) {
		t.Error("insight should precede summary regardless of weight")
	}
	if !summary.Before(record) {
		t.Error("summary should precede record")
	}
	if record.Before(insight) {
		t.Error("record must not precede insight")
	}
}

func TestBefore_WeightThenName(t *testing.T) {
	heavy := Reconstruct("sumarizacoes", 3.0, category.Summary, "")
	light := Reconstruct("proposicoes", 2.5, category.Summary, "")
	if !heavy.Before(light) {
		t.Error("within a category, larger weight goes first")
	}

	a := Reconstruct("insights_despesas", 2.0, category.Insight, "")
	b := Reconstruct("insights_distribuicao", 2.0, category.Insight, "")
	if !a.Before(b) {
		t.Error("equal weight breaks ties by name")
	}
}

func TestKnown_CoversStandardCollections(t *testing.T) {
	for _, name := range []string{
		"sumarizacoes", "proposicoes", "insights_distribuicao",
		"insights_despesas", "deputados", "despesas",
	} {
		col, ok := Known(name)
		if !ok {
			t.Errorf("Known(%q) not found", name)
			continue
		}
		if col.Weight() <= 0 {
			t.Errorf("Known(%q) weight = %v", name, col.Weight())
		}
		if !col.Category().IsValid() {
			t.Errorf("Known(%q) category = %q", name, col.Category())
		}
	}
}

func TestKnown_PriorityOrderPreserved(t *testing.T) {
	sum, _ := Known("sumarizacoes")
	prop, _ := Known("proposicoes")
	ins, _ := Known("insights_despesas")
	dep, _ := Known("deputados")

	if !(sum.Weight() > prop.Weight() && prop.Weight() > ins.Weight() && ins.Weight() > dep.Weight()) {
		t.Errorf("weights must order sumarizacoes > proposicoes > insights > deputados, got %v %v %v %v",
			sum.Weight(), prop.Weight(), ins.Weight(), dep.Weight())
	}
}

func TestFallback_UnknownCollection(t *testing.T) {
	col := Fallback("discursos")
	if col.Weight() != 1.0 {
		t.Errorf("fallback weight = %v, want 1.0", col.Weight())
	}
	if col.Category() != category.Record {
		t.Errorf("fallback category = %q, want record", col.Category())
	}
	if col.Label() != "DADOS COMPLEMENTARES: DISCURSOS" {
		t.Errorf("fallback label = %q", col.Label())
	}
}
