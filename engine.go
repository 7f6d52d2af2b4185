package plenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/plenario-ai/plenario/internal/config"
	dbRedis "github.com/plenario-ai/plenario/internal/db/redis"
	"github.com/plenario-ai/plenario/internal/domain"
	"github.com/plenario-ai/plenario/internal/domain/conversation"
	"github.com/plenario-ai/plenario/internal/metrics"
	"github.com/plenario-ai/plenario/internal/registry"
	budgetrepo "github.com/plenario-ai/plenario/internal/repository/budget"
	"github.com/plenario-ai/plenario/internal/repository/embcache"
	openaiTransport "github.com/plenario-ai/plenario/internal/transport/openai"
	answeruc "github.com/plenario-ai/plenario/internal/usecase/answer"
	"github.com/plenario-ai/plenario/internal/usecase/assembly"
	embeddinguc "github.com/plenario-ai/plenario/internal/usecase/embedding"
	generationuc "github.com/plenario-ai/plenario/internal/usecase/generation"
	healthuc "github.com/plenario-ai/plenario/internal/usecase/health"
	retrievaluc "github.com/plenario-ai/plenario/internal/usecase/retrieval"
	selfaskuc "github.com/plenario-ai/plenario/internal/usecase/selfask"
	usageuc "github.com/plenario-ai/plenario/internal/usecase/usage"
)

// Engine is the embedded question-answering engine. Read-only after New,
// safe for concurrent use. Close releases the Redis connection when one
// was opened.
type Engine struct {
	reg       *registry.Registry
	retriever *retrievaluc.Service
	assembler *assembly.Service
	answerer  *answeruc.Service
	usageSvc  *usageuc.Service
	healthSvc *healthuc.Service

	threshold float64
	baseK     int
	resultCap int

	store *dbRedis.Store
	obs   *observer
}

// New builds an Engine: loads every artifact pair under the data directory,
// connects Redis when configured and wires the retrieval, self-ask and
// generation services. The context bounds the Redis readiness check.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	ec := &engineConfig{}
	for _, o := range opts {
		o.apply(ec)
	}

	cfg, err := resolveConfig(ec)
	if err != nil {
		return nil, err
	}

	if ec.embedder == nil && cfg.OpenAI.APIKey == "" {
		return nil, errors.New("plenario: embedding provider required (use WithOpenAI or WithEmbedder)")
	}

	obs, err := newObserver(ec.logger, ec.metricsReg)
	if err != nil {
		return nil, err
	}

	return wireEngine(ctx, cfg, ec, obs)
}

// resolveConfig merges the optional config file with option overrides.
func resolveConfig(ec *engineConfig) (config.Config, error) {
	var cfg config.Config
	if ec.configPath != "" {
		loaded, err := config.Load(ec.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("plenario: %w", err)
		}
		cfg = loaded
	} else {
		cfg.ApplyDefaults()
	}

	if ec.dataDir != "" {
		cfg.Data.Dir = ec.dataDir
	}
	if ec.openAIKey != "" {
		cfg.OpenAI.APIKey = ec.openAIKey
	}
	if ec.openAIBaseURL != "" {
		cfg.OpenAI.BaseURL = ec.openAIBaseURL
	}
	if ec.redisAddr != "" {
		cfg.Redis.Addrs = []string{ec.redisAddr}
		cfg.Redis.Password = ec.redisPassword
	}
	for name, w := range ec.weights {
		if cfg.Retrieval.Collections == nil {
			cfg.Retrieval.Collections = make(map[string]config.CollectionConfig, len(ec.weights))
		}
		c := cfg.Retrieval.Collections[name]
		c.Weight = w
		cfg.Retrieval.Collections[name] = c
	}
	if ec.baseK > 0 {
		cfg.Retrieval.BaseK = ec.baseK
	}
	if ec.resultCap > 0 {
		cfg.Retrieval.ResultCap = ec.resultCap
	}
	if ec.scale != "" {
		cfg.Retrieval.KScale = ec.scale
	}
	if ec.selfAsk != nil {
		cfg.SelfAsk.Enabled = ec.selfAsk
	}
	if ec.confidenceThreshold != nil {
		cfg.SelfAsk.ConfidenceThreshold = *ec.confidenceThreshold
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("plenario: %w", err)
	}
	return cfg, nil
}

func wireEngine(ctx context.Context, cfg config.Config, ec *engineConfig, obs *observer) (*Engine, error) {
	nop := zap.NewNop()

	overrides := make(map[string]registry.Override, len(cfg.Retrieval.Collections))
	for name, c := range cfg.Retrieval.Collections {
		overrides[name] = registry.Override{Weight: c.Weight, Category: c.Category, Label: c.Label}
	}
	reg, err := registry.New(registry.Config{DataDir: cfg.Data.Dir, Overrides: overrides})
	if err != nil {
		return nil, fmt.Errorf("plenario: load collections: %w", err)
	}

	var store *dbRedis.Store
	if cfg.Redis.Enabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("plenario: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("plenario: redis not ready: %w", err)
		}
	}

	var budget *embeddinguc.BudgetTracker
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if cfg.Budget.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			"openai", cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, nop,
		)
		if store != nil {
			budget.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
		}
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var embBudget embeddinguc.BudgetChecker
	var genBudget generationuc.BudgetChecker
	if budget != nil {
		embBudget = budget
		genBudget = budget
	}

	// Embedding chain: base -> cache -> budget -> instruction.
	var base domain.Embedder
	var embHealth healthuc.EmbeddingChecker
	if ec.embedder != nil {
		base = &embedderAdapter{inner: ec.embedder}
		if hc, ok := ec.embedder.(healthuc.EmbeddingChecker); ok {
			embHealth = hc
		}
	} else {
		oai := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.EmbeddingModel,
			Dimensions: cfg.OpenAI.EmbeddingDimensions,
			Provider:   "openai",
			Logger:     nop,
		})
		base = oai
		embHealth = oai
	}
	embedder := base
	if store != nil {
		ttl := time.Duration(cfg.Embedding.CacheTTLHours) * time.Hour
		embedder = embcache.New(embedder, store, cfg.OpenAI.EmbeddingModel, ttl, metrics.EmbeddingCacheTotal, nop)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, "openai", cfg.OpenAI.EmbeddingModel, embBudget, nop)
	if cfg.Embedding.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}

	var gen domain.Generator
	if ec.generator != nil {
		gen = &generatorAdapter{inner: ec.generator}
	} else {
		gen = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.ChatModel,
			Logger:  nop,
		})
	}
	gen = generationuc.NewInstrumentedGenerator(gen, "openai", cfg.OpenAI.ChatModel, genBudget, nop)

	scale, err := retrievaluc.ParseScale(cfg.Retrieval.KScale)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("plenario: %w", err)
	}
	retriever := retrievaluc.New(reg, embedder, retrievaluc.Config{
		Scale:       scale,
		MaxParallel: cfg.Retrieval.MaxParallel,
	})
	assembler := assembly.New(reg)
	decomposer := selfaskuc.New(retriever, selfaskuc.Config{
		ConfidenceThreshold: cfg.SelfAsk.ConfidenceThreshold,
		SubBaseK:            cfg.SelfAsk.SubBaseK,
		SubResultCap:        cfg.SelfAsk.SubResultCap,
	})
	answerer := answeruc.New(retriever, assembler, decomposer, gen, answeruc.Config{
		SelfAskEnabled: cfg.SelfAsk.IsEnabled(),
		BaseK:          cfg.Retrieval.BaseK,
		ResultCap:      cfg.Retrieval.ResultCap,
		HistoryTurns:   cfg.Generation.HistoryTurns,
		MaxTokens:      cfg.Generation.MaxTokens,
		Temperature:    cfg.Generation.Temperature,
	})

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader).WithCostRate(cfg.Budget.CostPerMillionTokens)

	var kvPinger healthuc.KVPinger
	if store != nil {
		kvPinger = store
	}
	healthSvc := healthuc.New(kvPinger, embHealth, reg)

	return &Engine{
		reg:       reg,
		retriever: retriever,
		assembler: assembler,
		answerer:  answerer,
		usageSvc:  usageSvc,
		healthSvc: healthSvc,
		threshold: decomposer.Threshold(),
		baseK:     cfg.Retrieval.BaseK,
		resultCap: cfg.Retrieval.ResultCap,
		store:     store,
		obs:       obs,
	}, nil
}

// Close releases the Redis connection. Safe on engines without one.
func (e *Engine) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// AskOption tunes one Ask call.
type AskOption interface {
	apply(*askConfig) error
}

type askOptionFunc func(*askConfig) error

func (f askOptionFunc) apply(c *askConfig) error { return f(c) }

type askConfig struct {
	history   conversation.History
	decompose *bool
}

// Turn is one prior dialogue exchange supplied as Ask history.
type Turn struct {
	Role string // "user" or "assistant"
	Text string
}

// WithHistory supplies prior dialogue turns, oldest first. Only the most
// recent configured turns enter the prompt.
func WithHistory(turns ...Turn) AskOption {
	return askOptionFunc(func(c *askConfig) error {
		conv := make([]conversation.Turn, len(turns))
		for i, t := range turns {
			turn, err := conversation.NewTurn(conversation.Role(t.Role), t.Text)
			if err != nil {
				return fmt.Errorf("plenario: history turn %d: %w", i, err)
			}
			conv[i] = turn
		}
		c.history = conversation.NewHistory(conv)
		return nil
	})
}

// WithDecomposition overrides the engine's self-ask toggle for one call.
func WithDecomposition(enabled bool) AskOption {
	return askOptionFunc(func(c *askConfig) error {
		c.decompose = &enabled
		return nil
	})
}

// Ask answers one question. Embedding and generation outages come back as
// fallback answers with Failed set, not as errors; blank questions and
// cancellation are errors.
func (e *Engine) Ask(ctx context.Context, question string, opts ...AskOption) (_ Answer, err error) {
	start := time.Now()
	defer func() { e.obs.observe("ask", start, err) }()

	var ac askConfig
	for _, o := range opts {
		if err = o.apply(&ac); err != nil {
			return Answer{}, err
		}
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	ans, err := e.answerer.Ask(ctx, question, ac.history, answeruc.Options{Decompose: ac.decompose})
	if err != nil {
		return Answer{}, err
	}

	return toAnswer(question, ans, e.threshold, TokenUsage{
		EmbeddingTokens:  usage.EmbeddingTokens,
		GenerationTokens: usage.GenerationTokens,
	}), nil
}

// Retrieve runs one weighted multi-collection retrieval with the engine's
// default bounds. Use Query for per-call control.
func (e *Engine) Retrieve(ctx context.Context, query string) ([]Result, error) {
	return e.Query(query).Do(ctx)
}

// AssembleContext retrieves evidence for the query and renders the grouped
// context block the generator would receive.
func (e *Engine) AssembleContext(ctx context.Context, query string) (_ AssembledContext, err error) {
	start := time.Now()
	defer func() { e.obs.observe("context", start, err) }()

	req, err := newRequest(query, e.baseK, e.resultCap, nil)
	if err != nil {
		return AssembledContext{}, err
	}
	results, err := e.retriever.Retrieve(ctx, req)
	if err != nil {
		return AssembledContext{}, err
	}
	return toAssembledContext(e.assembler.Assemble(results)), nil
}

// Collections reports every discovered collection, ready and skipped alike,
// in name order.
func (e *Engine) Collections() []CollectionStatus {
	return toCollectionStatuses(e.reg)
}

// Usage returns a token-spend report for the given period.
func (e *Engine) Usage(ctx context.Context, period UsagePeriod) UsageReport {
	start := time.Now()
	defer func() { e.obs.observe("usage", start, nil) }()

	return toUsageReport(e.usageSvc.GetReport(ctx, toDomainPeriod(period)))
}

// Health probes the configured components: Redis when connected, the
// embedding provider when it exposes a health check, and collection
// readiness.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	defer func() { e.obs.observe("health", start, nil) }()

	return toHealthStatus(e.healthSvc.Check(ctx))
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// generatorAdapter wraps the public Generator to satisfy domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	history := make([]GenerationTurn, len(req.History))
	for i, t := range req.History {
		history[i] = GenerationTurn{Role: t.Role, Text: t.Text}
	}
	r, err := a.inner.Generate(ctx, GenerationRequest{
		System:      req.System,
		History:     history,
		User:        req.User,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}
	return domain.GenerationResult{
		Text:             r.Text,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		TotalTokens:      r.TotalTokens,
	}, nil
}
