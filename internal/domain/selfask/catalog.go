package selfask

// Canonical fallback texts for evidence-derived answers.
const (
	// NoEvidenceAnswer is the sub-answer used when retrieval yields nothing.
	NoEvidenceAnswer = "Não foi possível encontrar informações relevantes."

	// InsufficientAnswer is the combined answer when no sub-question clears
	// the confidence threshold.
	InsufficientAnswer = "Desculpe, não consegui encontrar informações suficientes para responder sua pergunta."
)

// Template is one canonical sub-question with its context tag.
type Template struct {
	Question string
	Tag      string
}

// Templates returns the fixed sub-question set for a topic. The switch is
// exhaustive over valid topics; the default arm covers unknown values so a
// bad topic can never produce an empty decomposition.
func Templates(t Topic) []Template {
	switch t {
	case TopicParty:
		return []Template{
			{Question: "Quais são todos os partidos representados?", Tag: "distribuição partidária"},
			{Question: "Qual é o número de deputados por partido?", Tag: "contagem por partido"},
		}
	case TopicExpense:
		return []Template{
			{Question: "Quais são os tipos de despesas registrados?", Tag: "categorias de despesas"},
			{Question: "Qual é o valor total por tipo de despesa?", Tag: "soma por categoria"},
		}
	case TopicBill:
		return []Template{
			{Question: "Quais são as proposições relacionadas ao tema?", Tag: "busca por tema"},
			{Question: "Quais são os principais pontos dessas proposições?", Tag: "análise de conteúdo"},
		}
	case TopicGeneral:
		return generalTemplates()
	default:
		return generalTemplates()
	}
}

func generalTemplates() []Template {
	return []Template{
		{Question: "Qual é o contexto geral da pergunta?", Tag: "contexto geral"},
		{Question: "Quais dados são relevantes para esta pergunta?", Tag: "dados relevantes"},
	}
}
