package selfask

import (
	"errors"
	"fmt"

	"github.com/plenario-ai/plenario/internal/domain/search/result"
)

// ErrInvalidTransition signals an illegal decomposition state change.
var ErrInvalidTransition = errors.New("invalid decomposition transition")

// Status tracks a decomposition through its lifecycle.
type Status string

const (
	// StatusNew is the initial state before catalog dispatch.
	StatusNew Status = "new"
	// StatusDecomposed means sub-questions exist and await answers.
	StatusDecomposed Status = "decomposed"
	// StatusCombined is the terminal state with a combined answer.
	StatusCombined Status = "combined"
)

// SubStatus tracks one sub-question.
type SubStatus string

const (
	// SubPending means the sub-question has not been answered yet.
	SubPending SubStatus = "pending"
	// SubAnswered means evidence was retrieved and scored.
	SubAnswered SubStatus = "answered"
)

// SubQuestion is one unit of the decomposition: a canonical question, its
// context tag, the retrieved evidence, the evidence-derived answer and a
// confidence in [0,1]. Lives only for the duration of one query.
type SubQuestion struct {
	question   string
	tag        string
	evidence   []result.Result
	answer     string
	confidence float64
	status     SubStatus
}

// Question returns the sub-question text.
func (s SubQuestion) Question() string { return s.question }

// Tag returns the context tag from the catalog.
func (s SubQuestion) Tag() string { return s.tag }

// Evidence returns the retrieved results backing the answer.
func (s SubQuestion) Evidence() []result.Result { return s.evidence }

// Answer returns the evidence-derived answer text.
func (s SubQuestion) Answer() string { return s.answer }

// Confidence returns the answer confidence in [0,1].
func (s SubQuestion) Confidence() float64 { return s.confidence }

// Status returns the sub-question lifecycle state.
func (s SubQuestion) Status() SubStatus { return s.status }

// Decomposition is the per-question self-ask state machine:
// NEW -> DECOMPOSED -> {PENDING -> ANSWERED}* -> COMBINED.
// Transitions return updated copies; invalid transitions are errors.
type Decomposition struct {
	question string
	topic    Topic
	subs     []SubQuestion
	status   Status
	combined string
}

// NewDecomposition starts the state machine for a top-level question.
func NewDecomposition(question string) Decomposition {
	return Decomposition{question: question, status: StatusNew}
}

// Decomposed applies catalog dispatch: the detected topic and its template
// sub-questions, all pending. Valid only from NEW.
func (d Decomposition) Decomposed(topic Topic, templates []Template) (Decomposition, error) {
	if d.status != StatusNew {
		return Decomposition{}, fmt.Errorf("decompose from %q: %w", d.status, ErrInvalidTransition)
	}
	if len(templates) == 0 {
		return Decomposition{}, fmt.Errorf("decompose with empty template set: %w", ErrInvalidTransition)
	}
	subs := make([]SubQuestion, len(templates))
	for i, tpl := range templates {
		subs[i] = SubQuestion{question: tpl.Question, tag: tpl.Tag, status: SubPending}
	}
	d.topic = topic
	d.subs = subs
	d.status = StatusDecomposed
	return d, nil
}

// Answered records evidence, answer and confidence for sub-question i.
// Confidence is clamped to [0,1]. Valid only from DECOMPOSED on a pending
// sub-question.
func (d Decomposition) Answered(i int, evidence []result.Result, answer string, confidence float64) (Decomposition, error) {
	if d.status != StatusDecomposed {
		return Decomposition{}, fmt.Errorf("answer in %q: %w", d.status, ErrInvalidTransition)
	}
	if i < 0 || i >= len(d.subs) {
		return Decomposition{}, fmt.Errorf("answer sub-question %d of %d: %w", i, len(d.subs), ErrInvalidTransition)
	}
	if d.subs[i].status != SubPending {
		return Decomposition{}, fmt.Errorf("sub-question %d already answered: %w", i, ErrInvalidTransition)
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	subs := make([]SubQuestion, len(d.subs))
	copy(subs, d.subs)
	subs[i].evidence = evidence
	subs[i].answer = answer
	subs[i].confidence = confidence
	subs[i].status = SubAnswered
	d.subs = subs
	return d, nil
}

// Combined finalizes the decomposition with the combined answer text.
// Valid only from DECOMPOSED with every sub-question answered.
func (d Decomposition) Combined(answer string) (Decomposition, error) {
	if d.status != StatusDecomposed {
		return Decomposition{}, fmt.Errorf("combine from %q: %w", d.status, ErrInvalidTransition)
	}
	for i, s := range d.subs {
		if s.status != SubAnswered {
			return Decomposition{}, fmt.Errorf("combine with pending sub-question %d: %w", i, ErrInvalidTransition)
		}
	}
	d.combined = answer
	d.status = StatusCombined
	return d, nil
}

// Question returns the top-level question.
func (d Decomposition) Question() string { return d.question }

// Topic returns the detected topic.
func (d Decomposition) Topic() Topic { return d.topic }

// SubQuestions returns the ordered sub-questions.
func (d Decomposition) SubQuestions() []SubQuestion { return d.subs }

// Status returns the lifecycle state.
func (d Decomposition) Status() Status { return d.status }

// CombinedAnswer returns the final combined text (empty until COMBINED).
func (d Decomposition) CombinedAnswer() string { return d.combined }

// Accepted returns the sub-questions whose confidence exceeds the
// threshold, in generation order.
func (d Decomposition) Accepted(threshold float64) []SubQuestion {
	var out []SubQuestion
	for _, s := range d.subs {
		if s.status == SubAnswered && s.confidence > threshold {
			out = append(out, s)
		}
	}
	return out
}
