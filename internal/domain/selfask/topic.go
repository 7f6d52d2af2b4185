package selfask

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Topic is the question category driving decomposition. Detection is
// keyword-based over the accent-folded question; the catalog maps each
// topic to a fixed sub-question set.
type Topic string

const (
	// TopicParty covers party representation questions.
	TopicParty Topic = "party"
	// TopicExpense covers expenditure questions.
	TopicExpense Topic = "expense"
	// TopicBill covers bill and proposition questions.
	TopicBill Topic = "bill"
	// TopicGeneral is the default when no keyword matches.
	TopicGeneral Topic = "general"
)

// IsValid checks if the topic is one of the supported values.
func (t Topic) IsValid() bool {
	switch t {
	case TopicParty, TopicExpense, TopicBill, TopicGeneral:
		return true
	default:
		return false
	}
}

// String returns the topic name.
func (t Topic) String() string { return string(t) }

// topicKeywords maps each specific topic to its folded trigger keywords.
// Detection order is fixed: party, expense, bill; first match wins.
var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicParty, []string{"partido"}},
	{TopicExpense, []string{"despesa", "gasto"}},
	{TopicBill, []string{"proposicao", "proposicoes", "projeto de lei"}},
}

// DetectTopic classifies a question by keyword, ignoring case and accents,
// so "proposição" and "proposicao" hit the same topic.
func DetectTopic(question string) Topic {
	q := Fold(question)
	for _, tk := range topicKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(q, kw) {
				return tk.topic
			}
		}
	}
	return TopicGeneral
}

// Fold lowercases and strips combining marks ("proposição" -> "proposicao").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
