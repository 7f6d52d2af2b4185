package collection

import "github.com/plenario-ai/plenario/internal/domain/collection/category"

// Known returns the built-in definition for the standard chamber collections.
// Weights are calibrated so the relative priority order matches production
// tuning: summaries above bills above insights above raw records.
func Known(name string) (Collection, bool) {
	switch name {
	case "sumarizacoes":
		return Reconstruct(name, 3.0, category.Summary, "SUMARIZAÇÕES DE PROPOSIÇÕES"), true
	case "proposicoes":
		return Reconstruct(name, 2.5, category.Summary, "PROPOSIÇÕES ESPECÍFICAS"), true
	case "insights_distribuicao":
		return Reconstruct(name, 2.0, category.Insight, "INSIGHTS: DISTRIBUIÇÃO DE DEPUTADOS"), true
	case "insights_despesas":
		return Reconstruct(name, 2.0, category.Insight, "INSIGHTS: DESPESAS"), true
	case "deputados":
		return Reconstruct(name, 1.0, category.Record, "DADOS COMPLEMENTARES: DEPUTADOS"), true
	case "despesas":
		return Reconstruct(name, 1.0, category.Record, "DADOS COMPLEMENTARES: DESPESAS"), true
	default:
		return Collection{}, false
	}
}

// Fallback returns the definition used for a discovered collection that is
// neither built-in nor configured: lowest priority, per-record category.
func Fallback(name string) Collection {
	return Reconstruct(name, 1.0, category.Record, DefaultLabel(name))
}
