package selfask

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/plenario-ai/plenario/internal/domain"
	"github.com/plenario-ai/plenario/internal/domain/document"
	domselfask "github.com/plenario-ai/plenario/internal/domain/selfask"
	"github.com/plenario-ai/plenario/internal/domain/search/request"
	"github.com/plenario-ai/plenario/internal/domain/search/result"
	"github.com/plenario-ai/plenario/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSelfAskMetrics()
	m.Run()
}

type fakeRetriever struct {
	results map[string][]result.Result
	err     error
	reqs    []request.Request
}

func (f *fakeRetriever) Retrieve(_ context.Context, req request.Request) ([]result.Result, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[req.Query()], nil
}

func ev(ref, text string, adjusted float64) result.Result {
	return result.New(document.Reconstruct(ref, text, "", nil), adjusted, adjusted, "deputados")
}

func TestRunner_Run_PartyCatalog(t *testing.T) {
	retr := &fakeRetriever{}
	runner := New(retr, Config{})

	dec, err := runner.Run(context.Background(), "Qual partido tem mais deputados?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dec.Topic() != domselfask.TopicParty {
		t.Errorf("topic = %s, want party", dec.Topic())
	}

	subs := dec.SubQuestions()
	if len(subs) != 2 {
		t.Fatalf("expected 2 sub-questions, got %d", len(subs))
	}
	if subs[0].Question() != "Quais são todos os partidos representados?" {
		t.Errorf("subs[0] = %q", subs[0].Question())
	}
	if subs[1].Question() != "Qual é o número de deputados por partido?" {
		t.Errorf("subs[1] = %q", subs[1].Question())
	}
	if subs[0].Tag() != "distribuição partidária" || subs[1].Tag() != "contagem por partido" {
		t.Errorf("unexpected tags: %q, %q", subs[0].Tag(), subs[1].Tag())
	}
}

func TestRunner_Run_GeneralCatalog(t *testing.T) {
	retr := &fakeRetriever{}
	runner := New(retr, Config{})

	dec, err := runner.Run(context.Background(), "Como funciona o plenário?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dec.Topic() != domselfask.TopicGeneral {
		t.Errorf("topic = %s, want general", dec.Topic())
	}

	subs := dec.SubQuestions()
	if len(subs) != 2 {
		t.Fatalf("expected 2 sub-questions, got %d", len(subs))
	}
	if subs[0].Question() != "Qual é o contexto geral da pergunta?" {
		t.Errorf("subs[0] = %q", subs[0].Question())
	}
	if subs[1].Question() != "Quais dados são relevantes para esta pergunta?" {
		t.Errorf("subs[1] = %q", subs[1].Question())
	}
}

func TestRunner_Run_AccentInsensitiveTopic(t *testing.T) {
	retr := &fakeRetriever{}
	runner := New(retr, Config{})

	dec, err := runner.Run(context.Background(), "Quais as PROPOSIÇÕES sobre educação?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dec.Topic() != domselfask.TopicBill {
		t.Errorf("topic = %s, want bill", dec.Topic())
	}
}

func TestRunner_Run_EvidenceAnswer(t *testing.T) {
	partySub := "Quais são todos os partidos representados?"
	countSub := "Qual é o número de deputados por partido?"
	retr := &fakeRetriever{
		results: map[string][]result.Result{
			partySub: {
				ev("d1", "PT tem 68 deputados.", 0.25),
				ev("d2", "PL tem 92 deputados.", 0.5),
				ev("d3", "MDB tem 42 deputados.", 0.9),
			},
			countSub: {
				ev("d4", "São 513 deputados ao todo.", 1.0),
			},
		},
	}
	runner := New(retr, Config{})

	dec, err := runner.Run(context.Background(), "Fale sobre cada partido.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	subs := dec.SubQuestions()
	// Top two texts joined by a space; the third is dropped.
	if subs[0].Answer() != "PT tem 68 deputados. PL tem 92 deputados." {
		t.Errorf("subs[0] answer = %q", subs[0].Answer())
	}
	if subs[0].Confidence() != 0.8 { // 1/(1+0.25)
		t.Errorf("subs[0] confidence = %v, want 0.8", subs[0].Confidence())
	}
	if subs[1].Answer() != "São 513 deputados ao todo." {
		t.Errorf("subs[1] answer = %q", subs[1].Answer())
	}
	if subs[1].Confidence() != 0.5 { // 1/(1+1.0)
		t.Errorf("subs[1] confidence = %v, want 0.5", subs[1].Confidence())
	}
}

func TestRunner_Run_CombinesAcceptedInOrder(t *testing.T) {
	first := "Qual é o contexto geral da pergunta?"
	second := "Quais dados são relevantes para esta pergunta?"
	retr := &fakeRetriever{
		results: map[string][]result.Result{
			first:  {ev("a", "Contexto amplo.", 0.1)},
			second: {ev("b", "Dados de despesas.", 0.2)},
		},
	}
	runner := New(retr, Config{})

	dec, err := runner.Run(context.Background(), "Resuma o cenário.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dec.Status() != domselfask.StatusCombined {
		t.Fatalf("status = %s, want combined", dec.Status())
	}
	if dec.CombinedAnswer() != "Contexto amplo. Dados de despesas." {
		t.Errorf("combined = %q", dec.CombinedAnswer())
	}
}

func TestRunner_Run_MixedAcceptance(t *testing.T) {
	first := "Qual é o contexto geral da pergunta?"
	second := "Quais dados são relevantes para esta pergunta?"
	// Adjusted 0.25 gives confidence 0.8 (accepted); 3.0 gives 0.25 (rejected).
	retr := &fakeRetriever{
		results: map[string][]result.Result{
			first:  {ev("a", "Contexto confiável.", 0.25)},
			second: {ev("b", "Evidência distante.", 3.0)},
		},
	}
	runner := New(retr, Config{})

	dec, err := runner.Run(context.Background(), "Resuma o cenário.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dec.CombinedAnswer() != "Contexto confiável." {
		t.Errorf("combined = %q, want only the accepted answer", dec.CombinedAnswer())
	}
}

func TestRunner_Run_AllBelowThresholdInsufficient(t *testing.T) {
	first := "Qual é o contexto geral da pergunta?"
	second := "Quais dados são relevantes para esta pergunta?"
	retr := &fakeRetriever{
		results: map[string][]result.Result{
			first:  {ev("a", "Muito distante.", 4.0)},
			second: {ev("b", "Também distante.", 9.0)},
		},
	}
	runner := New(retr, Config{})

	dec, err := runner.Run(context.Background(), "Pergunta vaga.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dec.CombinedAnswer() != domselfask.InsufficientAnswer {
		t.Errorf("combined = %q, want the insufficient-information text", dec.CombinedAnswer())
	}
}

func TestRunner_Run_NoEvidenceNeverFatal(t *testing.T) {
	retr := &fakeRetriever{} // every retrieval returns nothing
	runner := New(retr, Config{})

	dec, err := runner.Run(context.Background(), "Sem dados sobre isso.")
	if err != nil {
		t.Fatalf("zero evidence must not fail Run: %v", err)
	}
	for i, sub := range dec.SubQuestions() {
		if sub.Answer() != domselfask.NoEvidenceAnswer {
			t.Errorf("subs[%d] answer = %q", i, sub.Answer())
		}
		if sub.Confidence() != 0 {
			t.Errorf("subs[%d] confidence = %v, want 0", i, sub.Confidence())
		}
	}
	if dec.CombinedAnswer() != domselfask.InsufficientAnswer {
		t.Errorf("combined = %q", dec.CombinedAnswer())
	}
}

func TestRunner_Run_EmbeddingFailureFatal(t *testing.T) {
	retr := &fakeRetriever{
		err: fmt.Errorf("vectorize query: %w", domain.ErrEmbeddingProviderError),
	}
	runner := New(retr, Config{})

	_, err := runner.Run(context.Background(), "Qualquer pergunta.")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected wrapped embedding error, got %v", err)
	}
}

func TestRunner_Run_SubRetrievalBounds(t *testing.T) {
	retr := &fakeRetriever{}
	runner := New(retr, Config{})

	if _, err := runner.Run(context.Background(), "Qual partido lidera?"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(retr.reqs) != 2 {
		t.Fatalf("expected 2 sub-retrievals, got %d", len(retr.reqs))
	}
	for i, req := range retr.reqs {
		if req.BaseK() != DefaultSubBaseK {
			t.Errorf("reqs[%d] base_k = %d, want %d", i, req.BaseK(), DefaultSubBaseK)
		}
		if req.Cap() != DefaultSubResultCap {
			t.Errorf("reqs[%d] cap = %d, want %d", i, req.Cap(), DefaultSubResultCap)
		}
		if len(req.Collections()) != 0 {
			t.Errorf("reqs[%d] must target all collections", i)
		}
	}
}

func TestRunner_Run_CustomThreshold(t *testing.T) {
	first := "Qual é o contexto geral da pergunta?"
	retr := &fakeRetriever{
		results: map[string][]result.Result{
			first: {ev("a", "Evidência razoável.", 1.0)}, // conf 0.5
		},
	}
	runner := New(retr, Config{ConfidenceThreshold: 0.4})

	dec, err := runner.Run(context.Background(), "Pergunta geral.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dec.CombinedAnswer() != "Evidência razoável." {
		t.Errorf("combined = %q, want the 0.5-confidence answer accepted at 0.4", dec.CombinedAnswer())
	}
}

func TestRunner_Run_ThresholdIsStrict(t *testing.T) {
	first := "Qual é o contexto geral da pergunta?"
	second := "Quais dados são relevantes para esta pergunta?"
	// Adjusted 1.0 gives confidence exactly 0.5 — right on the threshold.
	retr := &fakeRetriever{
		results: map[string][]result.Result{
			first:  {ev("a", "Na fronteira.", 1.0)},
			second: nil,
		},
	}
	runner := New(retr, Config{})

	dec, err := runner.Run(context.Background(), "Pergunta geral.")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// confidence == threshold is rejected: acceptance requires strictly above.
	if dec.CombinedAnswer() != domselfask.InsufficientAnswer {
		t.Errorf("combined = %q, want insufficient-information text", dec.CombinedAnswer())
	}
}
