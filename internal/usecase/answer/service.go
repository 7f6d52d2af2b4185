// Package answer orchestrates the full question flow: optional self-ask
// decomposition, topic-aware retrieval, context assembly and a single
// generation call. Fatal provider failures never escape as errors; they
// become fixed fallback answers with a failure reason.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/plenario-ai/plenario/internal/domain"
	domanswer "github.com/plenario-ai/plenario/internal/domain/answer"
	"github.com/plenario-ai/plenario/internal/domain/conversation"
	domselfask "github.com/plenario-ai/plenario/internal/domain/selfask"
	"github.com/plenario-ai/plenario/internal/domain/search/request"
)

// Generation defaults.
const (
	DefaultMaxTokens    = 1024
	DefaultTemperature  = float32(0.3)
	DefaultHistoryTurns = 6
)

// Config holds answer service tuning.
type Config struct {
	// SelfAskEnabled turns decomposition on for calls that do not override it.
	SelfAskEnabled bool

	// BaseK and ResultCap bound the top-level retrieval. Zero takes the
	// request defaults.
	BaseK     int
	ResultCap int

	// HistoryTurns bounds how many recent dialogue turns enter the prompt.
	HistoryTurns int

	MaxTokens   int
	Temperature float32

	Logger *zap.Logger
}

// Options tunes one Ask call.
type Options struct {
	// Decompose overrides the configured self-ask toggle when non-nil.
	Decompose *bool
}

// Service answers questions over the collection set.
type Service struct {
	retriever  Retriever
	assembler  Assembler
	decomposer Decomposer
	generator  domain.Generator

	selfAskEnabled bool
	baseK          int
	resultCap      int
	historyTurns   int
	maxTokens      int
	temperature    float32
	logger         *zap.Logger
}

// New creates the answer service. A nil decomposer disables self-ask
// regardless of configuration.
func New(
	retriever Retriever, assembler Assembler, decomposer Decomposer,
	generator domain.Generator, cfg Config,
) *Service {
	historyTurns := cfg.HistoryTurns
	if historyTurns == 0 {
		historyTurns = DefaultHistoryTurns
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		retriever:      retriever,
		assembler:      assembler,
		decomposer:     decomposer,
		generator:      generator,
		selfAskEnabled: cfg.SelfAskEnabled,
		baseK:          cfg.BaseK,
		resultCap:      cfg.ResultCap,
		historyTurns:   historyTurns,
		maxTokens:      maxTokens,
		temperature:    temperature,
		logger:         logger,
	}
}

// Ask answers one question. The flow: detect topic, optionally run the
// self-ask decomposer, retrieve (bill questions get double base k),
// assemble context, generate once. Embedding and generation failures
// produce fallback answers with a failure reason instead of errors;
// cancellation and empty questions are returned as errors.
func (s *Service) Ask(
	ctx context.Context, question string, history conversation.History, opts Options,
) (domanswer.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return domanswer.Answer{}, domain.ErrEmptyQuestion
	}

	topic := domselfask.DetectTopic(question)

	var dec domselfask.Decomposition
	var accepted []domselfask.SubQuestion
	if s.useSelfAsk(opts) {
		var err error
		dec, err = s.decomposer.Run(ctx, question)
		if err != nil {
			return s.embeddingFallback(err)
		}
		accepted = dec.Accepted(s.decomposer.Threshold())
	}

	req, err := request.New(question, s.baseK, s.resultCap, nil)
	if err != nil {
		return domanswer.Answer{}, fmt.Errorf("build request: %w", err)
	}
	if topic == domselfask.TopicBill {
		// Вопросы о законопроектах получают вдвое больше кандидатов.
		req = req.WithBaseK(req.BaseK() * 2)
	}

	results, err := s.retriever.Retrieve(ctx, req)
	if err != nil {
		return s.embeddingFallback(err)
	}

	evidence := s.assembler.Assemble(results)

	if len(accepted) == 0 && evidence.Empty() {
		// Нечего генерировать: ни принятых под-ответов, ни контекста.
		return domanswer.New(domselfask.InsufficientAnswer, nil, 0, dec)
	}

	genRes, err := s.generator.Generate(ctx, domain.GenerationRequest{
		System:      systemPrompt,
		History:     generationHistory(history.Recent(s.historyTurns)),
		User:        buildUserPrompt(question, evidence.Assembled, accepted),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return s.generationFallback(err)
	}

	ans, err := domanswer.New(genRes.Text, results, len(evidence.Assembled), dec)
	if err != nil {
		return s.generationFallback(err)
	}

	s.logger.Debug("Question answered",
		zap.String("topic", string(topic)),
		zap.Int("results", len(results)),
		zap.Int("context_chars", len(evidence.Assembled)),
		zap.Int("accepted_subs", len(accepted)),
		zap.Int("tokens", genRes.TotalTokens),
	)

	return ans.WithTokens(genRes.PromptTokens, genRes.CompletionTokens), nil
}

func (s *Service) useSelfAsk(opts Options) bool {
	if s.decomposer == nil {
		return false
	}
	if opts.Decompose != nil {
		return *opts.Decompose
	}
	return s.selfAskEnabled
}

// embeddingFallback converts a fatal embedding-phase error into the fixed
// apology answer. Cancellation propagates as an error.
func (s *Service) embeddingFallback(cause error) (domanswer.Answer, error) {
	if cancelled(cause) {
		return domanswer.Answer{}, cause
	}
	s.logger.Warn("Answering degraded: embedding failed", zap.Error(cause))
	return domanswer.NewFailed(domanswer.FallbackEmbedding, domanswer.FailureEmbedding)
}

// generationFallback converts a generation failure into the fixed apology
// answer. Cancellation propagates as an error.
func (s *Service) generationFallback(cause error) (domanswer.Answer, error) {
	if cancelled(cause) {
		return domanswer.Answer{}, cause
	}
	s.logger.Warn("Answering degraded: generation failed", zap.Error(cause))
	return domanswer.NewFailed(domanswer.FallbackGeneration, domanswer.FailureGeneration)
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func generationHistory(turns []conversation.Turn) []domain.GenerationTurn {
	if len(turns) == 0 {
		return nil
	}
	out := make([]domain.GenerationTurn, len(turns))
	for i, t := range turns {
		out[i] = domain.GenerationTurn{Role: string(t.Role()), Text: t.Text()}
	}
	return out
}
