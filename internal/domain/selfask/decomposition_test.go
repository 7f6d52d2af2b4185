package selfask

import (
	"errors"
	"strings"
	"testing"
)

func decomposed(t *testing.T) Decomposition {
	t.Helper()
	d := NewDecomposition("Quais os gastos por partido?")
	d, err := d.Decomposed(TopicParty, Templates(TopicParty))
	if err != nil {
		t.Fatalf("Decomposed() error: %v", err)
	}
	return d
}

func TestNewDecomposition(t *testing.T) {
	d := NewDecomposition("pergunta")
	if d.Question() != "pergunta" {
		t.Errorf("Question() = %q", d.Question())
	}
	if d.Status() != StatusNew {
		t.Errorf("Status() = %q, want %q", d.Status(), StatusNew)
	}
	if len(d.SubQuestions()) != 0 {
		t.Error("fresh decomposition must have no sub-questions")
	}
}

func TestDecomposition_Decomposed(t *testing.T) {
	d := decomposed(t)
	if d.Status() != StatusDecomposed {
		t.Errorf("Status() = %q, want %q", d.Status(), StatusDecomposed)
	}
	if d.Topic() != TopicParty {
		t.Errorf("Topic() = %q", d.Topic())
	}
	subs := d.SubQuestions()
	if len(subs) != 2 {
		t.Fatalf("subs = %d, want 2", len(subs))
	}
	for _, s := range subs {
		if s.Status() != SubPending {
			t.Errorf("sub %q status = %q, want pending", s.Question(), s.Status())
		}
	}
}

func TestDecomposition_Decomposed_InvalidTransitions(t *testing.T) {
	d := decomposed(t)
	if _, err := d.Decomposed(TopicParty, Templates(TopicParty)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double decompose error = %v, want ErrInvalidTransition", err)
	}

	fresh := NewDecomposition("q")
	if _, err := fresh.Decomposed(TopicParty, nil); err == nil {
		t.Error("empty template set must be rejected")
	}
}

func TestDecomposition_Answered(t *testing.T) {
	d := decomposed(t)
	d, err := d.Answered(0, nil, "PT, PL e MDB.", 0.8)
	if err != nil {
		t.Fatalf("Answered() error: %v", err)
	}

	subs := d.SubQuestions()
	if subs[0].Status() != SubAnswered {
		t.Error("sub 0 must be answered")
	}
	if subs[0].Answer() != "PT, PL e MDB." {
		t.Errorf("Answer() = %q", subs[0].Answer())
	}
	if subs[0].Confidence() != 0.8 {
		t.Errorf("Confidence() = %v", subs[0].Confidence())
	}
	if subs[1].Status() != SubPending {
		t.Error("sub 1 must stay pending")
	}
}

func TestDecomposition_Answered_ClampsConfidence(t *testing.T) {
	d := decomposed(t)
	d, err := d.Answered(0, nil, "a", 1.7)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.SubQuestions()[0].Confidence(); got != 1 {
		t.Errorf("confidence = %v, want clamped to 1", got)
	}

	d, err = d.Answered(1, nil, "b", -0.2)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.SubQuestions()[1].Confidence(); got != 0 {
		t.Errorf("confidence = %v, want clamped to 0", got)
	}
}

func TestDecomposition_Answered_Invalid(t *testing.T) {
	d := decomposed(t)

	if _, err := d.Answered(5, nil, "a", 0.5); err == nil {
		t.Error("out of range index must be rejected")
	}
	if _, err := NewDecomposition("q").Answered(0, nil, "a", 0.5); !errors.Is(err, ErrInvalidTransition) {
		t.Error("answering before decomposition must be rejected")
	}

	d, err := d.Answered(0, nil, "a", 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Answered(0, nil, "b", 0.5); !errors.Is(err, ErrInvalidTransition) {
		t.Error("double answer must be rejected")
	}
}

func TestDecomposition_Combined(t *testing.T) {
	d := decomposed(t)

	if _, err := d.Combined("x"); !errors.Is(err, ErrInvalidTransition) {
		t.Error("combining with pending subs must be rejected")
	}

	d, _ = d.Answered(0, nil, "primeira", 0.9)
	d, _ = d.Answered(1, nil, "segunda", 0.2)
	d, err := d.Combined("primeira")
	if err != nil {
		t.Fatalf("Combined() error: %v", err)
	}
	if d.Status() != StatusCombined {
		t.Errorf("Status() = %q, want %q", d.Status(), StatusCombined)
	}
	if d.CombinedAnswer() != "primeira" {
		t.Errorf("CombinedAnswer() = %q", d.CombinedAnswer())
	}
	if _, err := d.Combined("again"); !errors.Is(err, ErrInvalidTransition) {
		t.Error("double combine must be rejected")
	}
}

func TestDecomposition_Accepted(t *testing.T) {
	d := decomposed(t)
	d, _ = d.Answered(0, nil, "alta", 0.9)
	d, _ = d.Answered(1, nil, "baixa", 0.5)

	accepted := d.Accepted(0.5)
	if len(accepted) != 1 {
		t.Fatalf("accepted = %d, want 1 (threshold is strict)", len(accepted))
	}
	if accepted[0].Answer() != "alta" {
		t.Errorf("accepted answer = %q", accepted[0].Answer())
	}

	if got := d.Accepted(0.95); len(got) != 0 {
		t.Errorf("accepted above all confidences = %d, want 0", len(got))
	}
}

func TestDecomposition_CopySemantics(t *testing.T) {
	d := decomposed(t)
	d2, err := d.Answered(0, nil, "resp", 0.7)
	if err != nil {
		t.Fatal(err)
	}
	// Исходное значение не должно меняться.
	if d.SubQuestions()[0].Status() != SubPending {
		t.Error("Answered must not mutate the receiver")
	}
	if d2.SubQuestions()[0].Status() != SubAnswered {
		t.Error("returned value must carry the answer")
	}
}

func TestErrInvalidTransition_Message(t *testing.T) {
	if !strings.Contains(ErrInvalidTransition.Error(), "transition") {
		t.Errorf("unexpected message: %q", ErrInvalidTransition.Error())
	}
}
