// Package selfask runs the question decomposition loop: catalog dispatch,
// sequential evidence retrieval per sub-question, and threshold-gated
// combination into one preliminary answer.
package selfask

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domselfask "github.com/plenario-ai/plenario/internal/domain/selfask"
	"github.com/plenario-ai/plenario/internal/domain/search/request"
	"github.com/plenario-ai/plenario/internal/domain/search/result"
	"github.com/plenario-ai/plenario/internal/metrics"
)

// Defaults for sub-question retrieval.
const (
	DefaultConfidenceThreshold = 0.5
	DefaultSubBaseK            = 3
	DefaultSubResultCap        = 12
)

// Config holds decomposer tuning.
type Config struct {
	// ConfidenceThreshold gates sub-answers out of the combined answer.
	// Acceptance is strict: confidence must exceed the threshold.
	ConfidenceThreshold float64

	// SubBaseK and SubResultCap bound each sub-question retrieval. The
	// defaults keep sub-question evidence much smaller than the top-level
	// context.
	SubBaseK     int
	SubResultCap int

	Logger *zap.Logger
}

// Runner executes the self-ask loop for one question.
type Runner struct {
	retriever Retriever
	threshold float64
	subBaseK  int
	subCap    int
	logger    *zap.Logger
}

// New creates a self-ask runner. Zero config fields take defaults.
func New(retriever Retriever, cfg Config) *Runner {
	threshold := cfg.ConfidenceThreshold
	if threshold == 0 {
		threshold = DefaultConfidenceThreshold
	}
	subBaseK := cfg.SubBaseK
	if subBaseK == 0 {
		subBaseK = DefaultSubBaseK
	}
	subCap := cfg.SubResultCap
	if subCap == 0 {
		subCap = DefaultSubResultCap
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		retriever: retriever,
		threshold: threshold,
		subBaseK:  subBaseK,
		subCap:    subCap,
		logger:    logger,
	}
}

// Run decomposes the question via the topic catalog, answers every
// sub-question from retrieved evidence in order, and combines the accepted
// answers. Sub-questions with no evidence get the fixed no-evidence answer
// at confidence zero; only embedding failures (and cancellation) abort.
// The returned decomposition is always in the COMBINED state.
func (r *Runner) Run(ctx context.Context, question string) (domselfask.Decomposition, error) {
	topic := domselfask.DetectTopic(question)

	dec, err := domselfask.NewDecomposition(question).Decomposed(topic, domselfask.Templates(topic))
	if err != nil {
		return domselfask.Decomposition{}, fmt.Errorf("decompose: %w", err)
	}
	metrics.SelfAskDecompositionsTotal.WithLabelValues(topic.String()).Inc()

	for i, sub := range dec.SubQuestions() {
		req, err := request.New(sub.Question(), r.subBaseK, r.subCap, nil)
		if err != nil {
			return domselfask.Decomposition{}, fmt.Errorf("sub-question %d: %w", i, err)
		}

		evidence, err := r.retriever.Retrieve(ctx, req)
		if err != nil {
			// Сбои отдельных коллекций координатор уже поглотил; сюда доходят
			// только фатальные ошибки (embedding, отмена).
			return domselfask.Decomposition{}, fmt.Errorf("sub-question %d: %w", i, err)
		}

		text, confidence := deriveAnswer(evidence)
		dec, err = dec.Answered(i, evidence, text, confidence)
		if err != nil {
			return domselfask.Decomposition{}, fmt.Errorf("sub-question %d: %w", i, err)
		}

		r.logger.Debug("Sub-question answered",
			zap.String("topic", topic.String()),
			zap.String("tag", sub.Tag()),
			zap.Int("evidence", len(evidence)),
			zap.Float64("confidence", confidence),
		)
	}

	for _, sub := range dec.SubQuestions() {
		accepted := "false"
		if sub.Confidence() > r.threshold {
			accepted = "true"
		}
		metrics.SelfAskSubQuestionsTotal.WithLabelValues(accepted).Inc()
	}

	dec, err = dec.Combined(combineAnswers(dec.Accepted(r.threshold)))
	if err != nil {
		return domselfask.Decomposition{}, fmt.Errorf("combine: %w", err)
	}
	return dec, nil
}

// Threshold returns the acceptance threshold in effect.
func (r *Runner) Threshold() float64 { return r.threshold }

// deriveAnswer builds the evidence answer: the top two texts joined by a
// space, with confidence 1/(1+best adjusted score).
func deriveAnswer(evidence []result.Result) (string, float64) {
	if len(evidence) == 0 {
		return domselfask.NoEvidenceAnswer, 0
	}

	top := evidence
	if len(top) > 2 {
		top = top[:2]
	}
	texts := make([]string, len(top))
	for i, res := range top {
		texts[i] = res.Document().Text()
	}

	return strings.Join(texts, " "), 1 / (1 + evidence[0].AdjustedScore())
}

// combineAnswers joins accepted sub-answers in generation order.
func combineAnswers(accepted []domselfask.SubQuestion) string {
	if len(accepted) == 0 {
		return domselfask.InsufficientAnswer
	}
	parts := make([]string, len(accepted))
	for i, sub := range accepted {
		parts[i] = sub.Answer()
	}
	return strings.Join(parts, " ")
}
