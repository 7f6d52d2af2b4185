// Package retrieval coordinates multi-collection semantic search: one query
// embedding fanned out across weighted collection indexes, merged into a
// single deterministically ordered result list.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/plenario-ai/plenario/internal/domain"
	domcol "github.com/plenario-ai/plenario/internal/domain/collection"
	"github.com/plenario-ai/plenario/internal/domain/search/request"
	"github.com/plenario-ai/plenario/internal/domain/search/result"
	"github.com/plenario-ai/plenario/internal/metrics"
)

// Config holds coordinator tuning.
type Config struct {
	// Scale converts collection weights to candidate-volume multipliers.
	// Nil selects proportional.
	Scale Scale

	// MaxParallel bounds concurrent collection searches. Zero means one
	// goroutine per collection.
	MaxParallel int

	Logger *zap.Logger
}

// Service is the retrieval coordinator.
type Service struct {
	catalog Catalog
	embed   Embedder
	scale   Scale
	maxPar  int
	logger  *zap.Logger
}

// New creates a retrieval coordinator.
func New(catalog Catalog, embed Embedder, cfg Config) *Service {
	scale := cfg.Scale
	if scale == nil {
		scale = proportional
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog: catalog,
		embed:   embed,
		scale:   scale,
		maxPar:  cfg.MaxParallel,
		logger:  logger,
	}
}

// Retrieve embeds the query once and searches the requested collections in
// parallel. Per-collection failures are logged and absorbed so a degraded
// collection only reduces the candidate pool; embedding failures are fatal.
// The merged list is sorted by (adjusted score, raw distance, collection,
// ref) ascending and truncated to the request cap.
func (s *Service) Retrieve(ctx context.Context, req request.Request) ([]result.Result, error) {
	cols, err := s.resolve(req.Collections())
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		metrics.RetrievalResultsMerged.Observe(0)
		return nil, nil
	}

	embRes, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	// Каждая горутина пишет только в свой слот; merge — строго после барьера.
	perCollection := make([][]result.Result, len(cols))

	g, gctx := errgroup.WithContext(ctx)
	if s.maxPar > 0 {
		g.SetLimit(s.maxPar)
	}
	for i, col := range cols {
		i, col := i, col
		g.Go(func() error {
			perCollection[i] = s.searchOne(gctx, col, embRes.Embedding, req.BaseK())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// Отмена запроса: частичные результаты не отдаём.
		return nil, err
	}

	total := 0
	for _, hits := range perCollection {
		total += len(hits)
	}
	merged := make([]result.Result, 0, total)
	for _, hits := range perCollection {
		merged = append(merged, hits...)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Less(merged[j]) })

	if len(merged) > req.Cap() {
		merged = merged[:req.Cap()]
	}

	metrics.RetrievalResultsMerged.Observe(float64(len(merged)))
	s.logger.Debug("Retrieval completed",
		zap.Int("collections", len(cols)),
		zap.Int("candidates", total),
		zap.Int("results", len(merged)),
	)

	return merged, nil
}

// searchOne queries a single collection and converts its hits to weighted
// results. Failures are absorbed: the collection contributes nothing.
func (s *Service) searchOne(
	ctx context.Context, col domcol.Collection, vector []float32, baseK int,
) []result.Result {
	k := effectiveK(baseK, col.Weight(), s.scale)

	start := time.Now()
	matches, err := s.catalog.Search(ctx, col.Name(), vector, k)
	metrics.CollectionSearchDuration.WithLabelValues(col.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CollectionSearchesTotal.WithLabelValues(col.Name(), "error").Inc()
		s.logger.Warn("Collection search failed",
			zap.String("collection", col.Name()),
			zap.Int("effective_k", k),
			zap.Error(err),
		)
		return nil
	}
	metrics.CollectionSearchesTotal.WithLabelValues(col.Name(), "success").Inc()

	hits := make([]result.Result, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, result.New(
			m.Doc, m.Distance, adjustedScore(m.Distance, col.Weight()), col.Name(),
		))
	}
	return hits
}

// resolve maps requested collection names to definitions. An empty subset
// targets every ready collection.
func (s *Service) resolve(names []string) ([]domcol.Collection, error) {
	if len(names) == 0 {
		return s.catalog.Collections(), nil
	}
	cols := make([]domcol.Collection, 0, len(names))
	for _, name := range names {
		col, ok := s.catalog.Collection(name)
		if !ok {
			return nil, fmt.Errorf("collection %q: %w", name, domain.ErrCollectionNotFound)
		}
		cols = append(cols, col)
	}
	return cols, nil
}
