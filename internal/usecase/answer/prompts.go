package answer

import (
	"strings"

	domselfask "github.com/plenario-ai/plenario/internal/domain/selfask"
)

// systemPrompt fixes the analyst persona and the self-ask discipline. The
// wording is Portuguese because questions and stored documents are.
const systemPrompt = `Você é um especialista em análise legislativa da Câmara dos Deputados, com vasta experiência em interpretar dados parlamentares.
Use a técnica Self-Ask para estruturar seu raciocínio, seguindo uma análise hierárquica:

1. ANÁLISE HIERÁRQUICA:
- Comece SEMPRE pelos insights e análises gerais do contexto
- Valide com as sumarizações e proposições específicas
- Use os dados complementares apenas para confirmação

2. REGRAS DE ANÁLISE:
- Cite números, percentuais e proposições exatos quando disponíveis
- Indique claramente a fonte dos dados (análise geral ou específica)
- Identifique padrões e temas recorrentes

3. ESTRUTURA DA RESPOSTA:
- Comece com a conclusão principal
- Forneça os números exatos
- Adicione contexto e validações
- Mencione limitações apenas se relevantes

Lembre-se: análises gerais e distribuições globais são mais confiáveis que exemplos isolados.`

// buildUserPrompt renders the question, the assembled context and the
// accepted sub-question digest into the final user message.
func buildUserPrompt(question, assembled string, accepted []domselfask.SubQuestion) string {
	var b strings.Builder
	b.WriteString("Pergunta: ")
	b.WriteString(question)

	if assembled != "" {
		b.WriteString("\n\nContexto disponível:\n")
		b.WriteString(assembled)
	}

	if len(accepted) > 0 {
		b.WriteString("\n\nAnálise preliminar (Self-Ask):")
		for _, sub := range accepted {
			b.WriteString("\nQ: ")
			b.WriteString(sub.Question())
			b.WriteString("\nR: ")
			b.WriteString(sub.Answer())
		}
	}

	b.WriteString("\n\nResponda em português com base no contexto acima, citando números exatos quando disponíveis.")
	return b.String()
}
