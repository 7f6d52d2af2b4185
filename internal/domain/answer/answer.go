// Package answer models the final product of a question-answering
// call: the generated text plus the retrieval evidence it was
// grounded on.
package answer

import (
	"errors"

	"github.com/plenario-ai/plenario/internal/domain/search/result"
	"github.com/plenario-ai/plenario/internal/domain/selfask"
)

// Failure tags answers produced on a degraded path. The text of a
// failed answer is a user-facing apology, not generated content.
type Failure string

const (
	FailureNone       Failure = ""
	FailureEmbedding  Failure = "embedding"
	FailureGeneration Failure = "generation"
)

var ErrEmptyAnswer = errors.New("answer: empty text")

// Answer is the assembled reply to one question.
type Answer struct {
	text          string
	failure       Failure
	sources       []result.Result
	contextChars  int
	decomposition selfask.Decomposition
	promptTokens  int
	outputTokens  int
}

// New builds a successful answer.
func New(text string, sources []result.Result, contextChars int, dec selfask.Decomposition) (Answer, error) {
	if text == "" {
		return Answer{}, ErrEmptyAnswer
	}
	cp := make([]result.Result, len(sources))
	copy(cp, sources)
	return Answer{
		text:          text,
		sources:       cp,
		contextChars:  contextChars,
		decomposition: dec,
	}, nil
}

// NewFailed builds a degraded answer carrying the fallback text.
func NewFailed(text string, failure Failure) (Answer, error) {
	if text == "" {
		return Answer{}, ErrEmptyAnswer
	}
	if failure == FailureNone {
		return Answer{}, errors.New("answer: failed answer needs a failure reason")
	}
	return Answer{text: text, failure: failure}, nil
}

// WithTokens returns a copy annotated with generation token counts.
func (a Answer) WithTokens(prompt, output int) Answer {
	a.promptTokens = prompt
	a.outputTokens = output
	return a
}

func (a Answer) Text() string     { return a.text }
func (a Answer) Failure() Failure { return a.failure }
func (a Answer) Failed() bool     { return a.failure != FailureNone }

// Sources returns the merged retrieval results the context was built
// from, best first.
func (a Answer) Sources() []result.Result {
	cp := make([]result.Result, len(a.sources))
	copy(cp, a.sources)
	return cp
}

// ContextChars reports the size of the assembled context in bytes.
func (a Answer) ContextChars() int { return a.contextChars }

// Decomposition returns the self-ask trace behind the answer. For
// degraded answers it is the zero value.
func (a Answer) Decomposition() selfask.Decomposition { return a.decomposition }

func (a Answer) PromptTokens() int { return a.promptTokens }
func (a Answer) OutputTokens() int { return a.outputTokens }
