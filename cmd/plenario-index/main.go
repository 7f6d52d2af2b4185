// plenario-index builds collection artifact pairs from JSONL fragment files
// and verifies existing pairs.
//
// Build one collection:
//
//	plenario-index -collection camara_insights -input insights.jsonl
//
// Verify every pair in the data directory:
//
//	plenario-index -verify -data-dir ./data
//
// Input lines are {"ref": "...", "text": "...", "metadata": {...}} objects.
// Texts are embedded through the same decorator chain the API server uses,
// so the Redis cache and the token budget apply to indexing runs too.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/plenario-ai/plenario/internal/artifact"
	"github.com/plenario-ai/plenario/internal/config"
	dbRedis "github.com/plenario-ai/plenario/internal/db/redis"
	"github.com/plenario-ai/plenario/internal/domain"
	"github.com/plenario-ai/plenario/internal/domain/document"
	logpkg "github.com/plenario-ai/plenario/internal/logger"
	"github.com/plenario-ai/plenario/internal/metrics"
	budgetrepo "github.com/plenario-ai/plenario/internal/repository/budget"
	"github.com/plenario-ai/plenario/internal/repository/embcache"
	openaiTransport "github.com/plenario-ai/plenario/internal/transport/openai"
	embeddinguc "github.com/plenario-ai/plenario/internal/usecase/embedding"
)

var collectionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (default: search order)")
		collection = flag.String("collection", "", "collection name to build")
		input      = flag.String("input", "", `JSONL fragment file ("-" for stdin)`)
		dataDir    = flag.String("data-dir", "", "artifact directory (default: data.dir from config)")
		verify     = flag.Bool("verify", false, "verify artifact pairs instead of building")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	if *verify {
		dir := *dataDir
		if dir == "" {
			cfg, err := config.Load(*configPath)
			if err != nil {
				log.Fatalf("need -data-dir or a config file: %v", err)
			}
			dir = cfg.Data.Dir
		}
		if !runVerify(dir) {
			os.Exit(1)
		}
		return
	}

	if *collection == "" {
		log.Fatal("missing -collection (or use -verify)")
	}
	if !collectionNameRe.MatchString(*collection) {
		log.Fatalf("invalid collection name %q: letters, digits, _ and - only", *collection)
	}
	if *input == "" {
		log.Fatal("missing -input")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	dir := *dataDir
	if dir == "" {
		dir = cfg.Data.Dir
	}

	logger, err := logpkg.NewLogger(cfg.Env, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := runBuild(ctx, cfg, dir, *collection, *input, logger); err != nil {
		logger.Fatal("Build failed", zap.String("collection", *collection), zap.Error(err))
	}
}

// runVerify loads every artifact pair under dir and reports alignment.
func runVerify(dir string) bool {
	names, err := artifact.Discover(dir)
	if err != nil {
		log.Fatalf("discover artifacts: %v", err)
	}
	if len(names) == 0 {
		fmt.Printf("no artifact pairs in %s\n", dir)
		return true
	}

	failed := 0
	for _, name := range names {
		pair, err := artifact.Load(dir, name)
		if err != nil {
			failed++
			fmt.Printf("FAIL %-24s %v\n", name, err)
			continue
		}
		fmt.Printf("ok   %-24s %d documents, dim %d\n", name, len(pair.Documents), pair.Dim)
	}

	fmt.Printf("%d collections checked, %d failed\n", len(names), failed)
	return failed == 0
}

func runBuild(
	ctx context.Context, cfg config.Config, dir, name, input string, logger *zap.Logger,
) error {
	start := time.Now()

	docs, err := readFragments(input, name)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no fragments in %s", input)
	}
	logger.Info("Fragments loaded",
		zap.String("collection", name),
		zap.Int("documents", len(docs)),
	)

	embedder, closeStore, err := buildDocumentEmbedder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, usage := domain.NewContextWithUsage(ctx)
	dim, vectors, err := embedAll(ctx, embedder, docs, cfg.Embedding.BatchChunkSize, logger)
	if err != nil {
		return err
	}
	if want := cfg.OpenAI.EmbeddingDimensions; want > 0 && dim != want {
		return fmt.Errorf("provider returned dim %d, config expects %d", dim, want)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := artifact.WriteData(artifact.DataPath(dir, name), docs); err != nil {
		return fmt.Errorf("write data artifact: %w", err)
	}
	if err := artifact.WriteVec(artifact.IndexPath(dir, name), dim, vectors); err != nil {
		return fmt.Errorf("write index artifact: %w", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("built %s: %d documents, dim %d\n", name, len(docs), dim)
	fmt.Printf("  data:   %s\n", artifact.DataPath(dir, name))
	fmt.Printf("  index:  %s\n", artifact.IndexPath(dir, name))
	fmt.Printf("  tokens: %d embedding tokens\n", usage.EmbeddingTokens)
	fmt.Printf("  took:   %s (%.0f docs/sec)\n",
		elapsed.Round(time.Millisecond), float64(len(docs))/elapsed.Seconds())
	return nil
}

// fragment is one JSONL input line.
type fragment struct {
	Ref      string            `json:"ref"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// readFragments parses JSONL input into validated documents. Blank lines are
// skipped; refs must be unique within the file.
func readFragments(path, source string) ([]document.Document, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var docs []document.Document
	seen := make(map[string]int)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var frag fragment
		if err := json.Unmarshal([]byte(line), &frag); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		doc, err := document.New(frag.Ref, frag.Text, source, frag.Metadata)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if first, dup := seen[frag.Ref]; dup {
			return nil, fmt.Errorf("line %d: duplicate ref %q (first seen on line %d)", lineNo, frag.Ref, first)
		}
		seen[frag.Ref] = lineNo
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return docs, nil
}

// buildDocumentEmbedder assembles the same decorator chain the API server
// uses for queries, with the document instruction instead:
// OpenAI -> Cached -> Instrumented -> Instruction. The returned closer
// releases the Redis connection when the cache is enabled.
func buildDocumentEmbedder(
	ctx context.Context, cfg config.Config, logger *zap.Logger,
) (domain.Embedder, func(), error) {
	closeStore := func() {}

	var store *dbRedis.Store
	if cfg.Redis.Enabled() {
		var err error
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		closeStore = func() { store.Close() }
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budget embeddinguc.BudgetChecker
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if cfg.Budget.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		tracker := embeddinguc.NewBudgetTracker(
			"openai", cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, logger,
		)
		if store != nil {
			tracker.WithStore(ctx, budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour))
		}
		budget = tracker
	}

	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.EmbeddingDimensions,
		Provider:   "openai",
		Logger:     logger,
	})
	if store != nil {
		ttl := time.Duration(cfg.Embedding.CacheTTLHours) * time.Hour
		embedder = embcache.New(embedder, store, cfg.OpenAI.EmbeddingModel, ttl, metrics.EmbeddingCacheTotal, logger)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, "openai", cfg.OpenAI.EmbeddingModel, budget, logger,
	)
	if cfg.Embedding.DocumentInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.Embedding.DocumentInstruction)
	}
	return embedder, closeStore, nil
}

// embedAll embeds document texts in configured chunks and returns the
// row-major vector block.
func embedAll(
	ctx context.Context, embedder domain.Embedder, docs []document.Document,
	chunkSize int, logger *zap.Logger,
) (int, []float32, error) {
	if chunkSize <= 0 {
		chunkSize = embeddinguc.DefaultMaxAPIBatchSize
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text()
	}

	be, batch := embedder.(domain.BatchEmbedder)

	dim := 0
	var vectors []float32
	for offset := 0; offset < len(texts); offset += chunkSize {
		end := offset + chunkSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[offset:end]

		var res domain.BatchEmbeddingResult
		var err error
		if batch {
			res, err = be.BatchEmbed(ctx, chunk)
		} else {
			res, err = domain.BatchFallback(ctx, embedder, chunk)
		}
		if err != nil {
			return 0, nil, fmt.Errorf("embed fragments %d..%d: %w", offset, end-1, err)
		}
		if len(res.Embeddings) != len(chunk) {
			return 0, nil, fmt.Errorf("embed fragments %d..%d: got %d vectors for %d texts",
				offset, end-1, len(res.Embeddings), len(chunk))
		}

		for i, emb := range res.Embeddings {
			if len(emb) == 0 {
				return 0, nil, fmt.Errorf("fragment %d: empty embedding", offset+i)
			}
			if dim == 0 {
				dim = len(emb)
				vectors = make([]float32, 0, len(docs)*dim)
			}
			if len(emb) != dim {
				return 0, nil, fmt.Errorf("fragment %d: dim %d, expected %d", offset+i, len(emb), dim)
			}
			vectors = append(vectors, emb...)
		}

		logger.Info("Embedded fragments",
			zap.Int("done", end),
			zap.Int("total", len(texts)),
			zap.Int("chunk_tokens", res.TotalTokens),
		)
	}

	return dim, vectors, nil
}
