// Package chi is the HTTP transport: hand-written DTOs, a sentinel-driven
// error chain and bearer auth on the API routes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/plenario-ai/plenario/internal/domain"
	domanswer "github.com/plenario-ai/plenario/internal/domain/answer"
	domcol "github.com/plenario-ai/plenario/internal/domain/collection"
	"github.com/plenario-ai/plenario/internal/domain/conversation"
	"github.com/plenario-ai/plenario/internal/domain/search/request"
	"github.com/plenario-ai/plenario/internal/domain/search/result"
	domselfask "github.com/plenario-ai/plenario/internal/domain/selfask"
	domusage "github.com/plenario-ai/plenario/internal/domain/usage"
	"github.com/plenario-ai/plenario/internal/registry"
	answeruc "github.com/plenario-ai/plenario/internal/usecase/answer"
	"github.com/plenario-ai/plenario/internal/usecase/assembly"
	healthuc "github.com/plenario-ai/plenario/internal/usecase/health"
)

// Asker answers questions end to end.
type Asker interface {
	Ask(ctx context.Context, question string, history conversation.History, opts answeruc.Options) (domanswer.Answer, error)
}

// Retriever runs weighted multi-collection retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, req request.Request) ([]result.Result, error)
}

// ContextAssembler renders merged results into grouped context.
type ContextAssembler interface {
	Assemble(results []result.Result) assembly.Context
}

// CollectionLister exposes discovered collection state.
type CollectionLister interface {
	Statuses() []registry.Status
	Collection(name string) (domcol.Collection, bool)
}

// UsageReporter builds period usage reports.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API.
type Server struct {
	ask           Asker
	retrieval     Retriever
	assembler     ContextAssembler
	collections   CollectionLister
	usage         UsageReporter
	health        HealthReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ask Asker,
	retrieval Retriever,
	assembler ContextAssembler,
	collections CollectionLister,
	usage UsageReporter,
	health HealthReporter,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ask:         ask,
		retrieval:   retrieval,
		assembler:   assembler,
		collections: collections,
		usage:       usage,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuestion, http.StatusBadRequest, ErrorCodeEmptyQuestion),
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, ErrorCodeCollectionNotFound),
		sentinelHandler(domain.ErrTokenBudgetExceeded, http.StatusPaymentRequired, ErrorCodeBudgetExhausted),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, ErrorCodeBudgetExhausted),
		sentinelHandler(domain.ErrEmbeddingRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProvider),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, ErrorCodeGenerationFailed),
	}
	return s
}

// Register mounts every route on the router. Auth middleware is applied by
// the caller; /health and /metrics stay exempt by path.
func (s *Server) Register(r chirouter.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(api chirouter.Router) {
		api.Post("/ask", s.Ask)
		api.Post("/retrieve", s.Retrieve)
		api.Post("/context", s.AssembleContext)
		api.Get("/collections", s.ListCollections)
		api.Get("/usage", s.GetUsage)
	})
}

// Ask handles POST /api/v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	history, err := historyFromDTO(req.History)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ans, err := s.ask.Ask(ctx, req.Question, history, answeruc.Options{Decompose: req.Decompose})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	subs := ans.Decomposition().SubQuestions()
	items := make([]SubQuestionItem, len(subs))
	for i, sub := range subs {
		items[i] = SubQuestionItem{
			Question:   sub.Question(),
			Tag:        sub.Tag(),
			Answer:     sub.Answer(),
			Confidence: sub.Confidence(),
		}
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Answer:           ans.Text(),
		Failure:          string(ans.Failure()),
		Topic:            domselfask.DetectTopic(req.Question).String(),
		SubQuestions:     items,
		ContextDocuments: len(ans.Sources()),
		Usage: AskUsage{
			EmbeddingTokens:  usage.EmbeddingTokens,
			GenerationTokens: usage.GenerationTokens,
		},
	})
}

// Retrieve handles POST /api/v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRetrieveRequest(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.retrieval.Retrieve(ctx, req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]RetrieveItem, len(results))
	for i := range results {
		items[i] = RetrieveItem{
			Ref:           results[i].Document().Ref(),
			Text:          results[i].Document().Text(),
			Collection:    results[i].Collection(),
			RawDistance:   results[i].RawDistance(),
			AdjustedScore: results[i].AdjustedScore(),
		}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, RetrieveResponse{Items: items, Total: len(items)})
}

// AssembleContext handles POST /api/v1/context.
func (s *Server) AssembleContext(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRetrieveRequest(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.retrieval.Retrieve(ctx, req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	evidence := s.assembler.Assemble(results)
	sections := make([]SectionItem, len(evidence.Sections))
	for i, sec := range evidence.Sections {
		sections[i] = SectionItem{
			Collection: sec.Collection,
			Header:     sec.Header,
			Documents:  sec.Texts,
		}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, ContextResponse{
		Context:  evidence.Assembled,
		Sections: sections,
		Total:    evidence.Total,
	})
}

// ListCollections handles GET /api/v1/collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	statuses := s.collections.Statuses()
	items := make([]CollectionItem, len(statuses))
	for i, st := range statuses {
		item := CollectionItem{
			Name:      st.Name,
			Documents: st.Documents,
			Status:    "skipped",
			Reason:    st.Reason,
		}
		if st.Ready {
			item.Status = "ready"
			if col, ok := s.collections.Collection(st.Name); ok {
				item.Weight = col.Weight()
				item.Category = col.Category().String()
				item.Label = col.Label()
			}
		}
		items[i] = item
	}

	writeJSON(w, http.StatusOK, CollectionListResponse{Items: items})
}

// GetUsage handles GET /api/v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period := domusage.PeriodMonth
	switch r.URL.Query().Get("period") {
	case "day":
		period = domusage.PeriodDay
	case "total":
		period = domusage.PeriodTotal
	}

	report := s.usage.GetReport(r.Context(), period)

	resp := UsageResponse{
		Period: string(report.Period()),
		Usage: UsageMetrics{
			Requests: report.Metrics().Requests(),
			Tokens:   report.Metrics().Tokens(),
		},
		Budget: BudgetStatus{
			TokensLimit:     report.Budget().TokensLimit(),
			TokensRemaining: report.Budget().TokensRemaining(),
			IsExhausted:     report.Budget().IsExhausted(),
		},
	}

	if report.Metrics().CostMillidollars() > 0 {
		cost := report.Metrics().CostMillidollars()
		resp.Usage.CostMillidollars = &cost
	}

	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}

	if report.Budget().ResetsAt() > 0 {
		resetsAt := time.UnixMilli(report.Budget().ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Ready:   report.Ready,
		Skipped: report.Skipped,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeRetrieveRequest(w http.ResponseWriter, r *http.Request) (request.Request, bool) {
	var body RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return request.Request{}, false
	}

	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "query is required")
		return request.Request{}, false
	}

	req, err := request.New(body.Query, derefInt(body.BaseK), derefInt(body.ResultCap), body.Collections)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return request.Request{}, false
	}
	return req, true
}

func historyFromDTO(turns []HistoryTurn) (conversation.History, error) {
	if len(turns) == 0 {
		return conversation.History{}, nil
	}
	out := make([]conversation.Turn, len(turns))
	for i, t := range turns {
		turn, err := conversation.NewTurn(conversation.Role(t.Role), t.Text)
		if err != nil {
			return conversation.History{}, fmt.Errorf("history turn %d: %w", i, err)
		}
		out[i] = turn
	}
	return conversation.NewHistory(out), nil
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuestion,
		domain.ErrCollectionNotFound,
		domain.ErrCollectionUnavailable,
		domain.ErrTokenBudgetExceeded,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationFailed,
		domain.ErrNotReady,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
