package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plenario-ai/plenario/internal/config"
	dbRedis "github.com/plenario-ai/plenario/internal/db/redis"
	"github.com/plenario-ai/plenario/internal/domain"
	logpkg "github.com/plenario-ai/plenario/internal/logger"
	"github.com/plenario-ai/plenario/internal/metrics"
	"github.com/plenario-ai/plenario/internal/registry"
	budgetrepo "github.com/plenario-ai/plenario/internal/repository/budget"
	"github.com/plenario-ai/plenario/internal/repository/embcache"
	chiTransport "github.com/plenario-ai/plenario/internal/transport/chi"
	openaiTransport "github.com/plenario-ai/plenario/internal/transport/openai"
	answeruc "github.com/plenario-ai/plenario/internal/usecase/answer"
	"github.com/plenario-ai/plenario/internal/usecase/assembly"
	embeddinguc "github.com/plenario-ai/plenario/internal/usecase/embedding"
	generationuc "github.com/plenario-ai/plenario/internal/usecase/generation"
	healthuc "github.com/plenario-ai/plenario/internal/usecase/health"
	retrievaluc "github.com/plenario-ai/plenario/internal/usecase/retrieval"
	selfaskuc "github.com/plenario-ai/plenario/internal/usecase/selfask"
	usageuc "github.com/plenario-ai/plenario/internal/usecase/usage"
	"github.com/plenario-ai/plenario/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: search order)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(cfg.Env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting plenario API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", cfg.Env),
		zap.Int("http_port", cfg.Server.Port),
		zap.String("data_dir", cfg.Data.Dir),
	)

	ctx := context.Background()

	// Optional Redis: embedding cache and budget persistence. Without it the
	// cache is off and budget counters reset on restart.
	var store *dbRedis.Store
	if cfg.Redis.Enabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()
	metrics.RegisterRetrievalMetrics()
	metrics.RegisterSelfAskMetrics()

	// Collection registry: every artifact pair in the data dir, loaded once.
	// Broken pairs are skipped with a reason, not fatal.
	overrides := make(map[string]registry.Override, len(cfg.Retrieval.Collections))
	for name, c := range cfg.Retrieval.Collections {
		overrides[name] = registry.Override{Weight: c.Weight, Category: c.Category, Label: c.Label}
	}
	reg, err := registry.New(registry.Config{
		DataDir:   cfg.Data.Dir,
		Overrides: overrides,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("Failed to load collections", zap.Error(err))
	}
	logger.Info("Collections loaded",
		zap.Int("ready", reg.Ready()),
		zap.Int("skipped", reg.Skipped()),
	)

	// Single BudgetTracker shared by embedding, generation and the usage report.
	var budget *embeddinguc.BudgetTracker
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if cfg.Budget.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			"openai", cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, logger,
		)
		if store != nil {
			// Connect persistence store — loads current counters from Redis.
			budget.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
		}
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var embBudget embeddinguc.BudgetChecker
	var genBudget generationuc.BudgetChecker
	if budget != nil {
		embBudget = budget
		genBudget = budget
	}

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.EmbeddingDimensions,
		Provider:   "openai",
		Logger:     logger,
	})
	queryEmbedder := buildQueryEmbedder(baseEmbedder, cfg, store, embBudget, logger)
	logger.Info("Query embedder created",
		zap.String("model", cfg.OpenAI.EmbeddingModel),
		zap.Int("dimensions", cfg.OpenAI.EmbeddingDimensions),
	)

	generator := generationuc.NewInstrumentedGenerator(
		openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.ChatModel,
			Logger:  logger,
		}),
		"openai", cfg.OpenAI.ChatModel, genBudget, logger,
	)

	scale, err := retrievaluc.ParseScale(cfg.Retrieval.KScale)
	if err != nil {
		logger.Fatal("Invalid k scale", zap.Error(err))
	}
	retriever := retrievaluc.New(reg, queryEmbedder, retrievaluc.Config{
		Scale:       scale,
		MaxParallel: cfg.Retrieval.MaxParallel,
		Logger:      logger,
	})
	assembler := assembly.New(reg)
	decomposer := selfaskuc.New(retriever, selfaskuc.Config{
		ConfidenceThreshold: cfg.SelfAsk.ConfidenceThreshold,
		SubBaseK:            cfg.SelfAsk.SubBaseK,
		SubResultCap:        cfg.SelfAsk.SubResultCap,
		Logger:              logger,
	})
	answerSvc := answeruc.New(retriever, assembler, decomposer, generator, answeruc.Config{
		SelfAskEnabled: cfg.SelfAsk.IsEnabled(),
		BaseK:          cfg.Retrieval.BaseK,
		ResultCap:      cfg.Retrieval.ResultCap,
		HistoryTurns:   cfg.Generation.HistoryTurns,
		MaxTokens:      cfg.Generation.MaxTokens,
		Temperature:    cfg.Generation.Temperature,
		Logger:         logger,
	})

	// Usage service — reads from shared BudgetTracker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader).WithCostRate(cfg.Budget.CostPerMillionTokens)

	// Health service — redis probe only when configured
	var kvPinger healthuc.KVPinger
	if store != nil {
		kvPinger = store
	}
	healthSvc := healthuc.New(kvPinger, baseEmbedder, reg)

	server := chiTransport.NewServer(answerSvc, retriever, assembler, reg, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(requestIDMiddleware)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.Token))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildQueryEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildQueryEmbedder(
	base *openaiTransport.Embedder,
	cfg config.Config,
	store *dbRedis.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base
	if store != nil {
		ttl := time.Duration(cfg.Embedding.CacheTTLHours) * time.Hour
		embedder = embcache.New(base, store, cfg.OpenAI.EmbeddingModel, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (budget + usage accounting)
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, "openai", cfg.OpenAI.EmbeddingModel, budget, logger,
	)

	// Instruction prefix (outermost — cache key includes instruction)
	if cfg.Embedding.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}

	return embedder
}

type requestIDKey struct{}

// requestIDMiddleware assigns a uuid to every request, honoring an inbound
// X-Request-ID from a trusted proxy.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := requestIDFromContext(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
