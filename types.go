package plenario

import (
	"time"

	domanswer "github.com/plenario-ai/plenario/internal/domain/answer"
	domselfask "github.com/plenario-ai/plenario/internal/domain/selfask"
	"github.com/plenario-ai/plenario/internal/domain/search/result"
	domusage "github.com/plenario-ai/plenario/internal/domain/usage"
	"github.com/plenario-ai/plenario/internal/registry"
	"github.com/plenario-ai/plenario/internal/usecase/assembly"
	healthuc "github.com/plenario-ai/plenario/internal/usecase/health"
)

// Result is one cross-collection retrieval hit. AdjustedScore divides the
// raw index distance by the source collection's weight; smaller ranks
// earlier throughout.
type Result struct {
	Collection    string
	Ref           string
	Text          string
	Metadata      map[string]string
	RawDistance   float64
	AdjustedScore float64
}

// SubQuestion is one self-ask decomposition unit with its evidence-derived
// answer. Accepted sub-answers (confidence strictly above the threshold)
// enter the generation prompt.
type SubQuestion struct {
	Question   string
	Tag        string
	Answer     string
	Confidence float64
	Accepted   bool
}

// TokenUsage reports provider tokens consumed by one call.
type TokenUsage struct {
	EmbeddingTokens  int
	GenerationTokens int
}

// Answer is the reply to one question with its retrieval trace.
type Answer struct {
	Text    string
	Failed  bool
	Failure string // "embedding" or "generation" when Failed

	Topic        string
	SubQuestions []SubQuestion
	Sources      []Result
	ContextChars int

	Usage TokenUsage
}

// ContextSection is one collection's labelled contribution to the
// assembled context, in category order.
type ContextSection struct {
	Collection string
	Header     string
	Texts      []string
}

// AssembledContext is the generator-facing evidence block for a query.
type AssembledContext struct {
	Sections []ContextSection
	Text     string
	Total    int
}

// CollectionStatus describes one discovered collection. Skipped entries
// carry the load failure reason and zero weight.
type CollectionStatus struct {
	Name      string
	Ready     bool
	Documents int
	Reason    string

	Weight   float64
	Category string
	Label    string
}

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
	PeriodTotal UsagePeriod = "total"
)

// UsageReport contains embedding usage statistics for a time period.
type UsageReport struct {
	Period      UsagePeriod
	PeriodStart time.Time
	PeriodEnd   time.Time
	Metrics     UsageMetrics
	Budget      BudgetStatus
}

// UsageMetrics tracks token consumption.
type UsageMetrics struct {
	Tokens           int
	CostMillidollars int
}

// BudgetStatus tracks token quota state.
type BudgetStatus struct {
	TokensLimit     int
	TokensRemaining int
	IsExhausted     bool
	ResetsAt        time.Time
}

// HealthStatus represents the aggregated engine health.
type HealthStatus struct {
	Status string            // "healthy" or "degraded"
	Checks map[string]string // component -> "ok"/"error"

	CollectionsReady   int
	CollectionsSkipped int
}

// --- converters from internal types ---

func toResult(r result.Result) Result {
	doc := r.Document()
	return Result{
		Collection:    r.Collection(),
		Ref:           doc.Ref(),
		Text:          doc.Text(),
		Metadata:      doc.Meta(),
		RawDistance:   r.RawDistance(),
		AdjustedScore: r.AdjustedScore(),
	}
}

func toResults(rs []result.Result) []Result {
	if len(rs) == 0 {
		return nil
	}
	out := make([]Result, len(rs))
	for i, r := range rs {
		out[i] = toResult(r)
	}
	return out
}

func toSubQuestions(dec domselfask.Decomposition, threshold float64) []SubQuestion {
	subs := dec.SubQuestions()
	if len(subs) == 0 {
		return nil
	}
	out := make([]SubQuestion, len(subs))
	for i, s := range subs {
		out[i] = SubQuestion{
			Question:   s.Question(),
			Tag:        s.Tag(),
			Answer:     s.Answer(),
			Confidence: s.Confidence(),
			Accepted:   s.Status() == domselfask.SubAnswered && s.Confidence() > threshold,
		}
	}
	return out
}

func toAnswer(question string, ans domanswer.Answer, threshold float64, usage TokenUsage) Answer {
	return Answer{
		Text:         ans.Text(),
		Failed:       ans.Failed(),
		Failure:      string(ans.Failure()),
		Topic:        domselfask.DetectTopic(question).String(),
		SubQuestions: toSubQuestions(ans.Decomposition(), threshold),
		Sources:      toResults(ans.Sources()),
		ContextChars: ans.ContextChars(),
		Usage:        usage,
	}
}

func toAssembledContext(c assembly.Context) AssembledContext {
	sections := make([]ContextSection, len(c.Sections))
	for i, s := range c.Sections {
		sections[i] = ContextSection{
			Collection: s.Collection,
			Header:     s.Header,
			Texts:      s.Texts,
		}
	}
	return AssembledContext{Sections: sections, Text: c.Assembled, Total: c.Total}
}

func toCollectionStatuses(reg *registry.Registry) []CollectionStatus {
	statuses := reg.Statuses()
	out := make([]CollectionStatus, len(statuses))
	for i, s := range statuses {
		cs := CollectionStatus{
			Name:      s.Name,
			Ready:     s.Ready,
			Documents: s.Documents,
			Reason:    s.Reason,
		}
		if col, ok := reg.Collection(s.Name); ok {
			cs.Weight = col.Weight()
			cs.Category = col.Category().String()
			cs.Label = col.Label()
		}
		out[i] = cs
	}
	return out
}

// toDomainPeriod maps the public period to the domain one. Unknown values
// report the running total.
func toDomainPeriod(p UsagePeriod) domusage.Period {
	switch p {
	case PeriodDay:
		return domusage.PeriodDay
	case PeriodMonth:
		return domusage.PeriodMonth
	default:
		return domusage.PeriodTotal
	}
}

func toUsageReport(r domusage.Report) UsageReport {
	m := r.Metrics()
	b := r.Budget()

	out := UsageReport{
		Period: UsagePeriod(r.Period()),
		Metrics: UsageMetrics{
			Tokens:           m.Tokens(),
			CostMillidollars: m.CostMillidollars(),
		},
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
		},
	}
	if r.PeriodStart() > 0 {
		out.PeriodStart = time.UnixMilli(r.PeriodStart()).UTC()
	}
	if r.PeriodEnd() > 0 {
		out.PeriodEnd = time.UnixMilli(r.PeriodEnd()).UTC()
	}
	if b.ResetsAt() > 0 {
		out.Budget.ResetsAt = time.UnixMilli(b.ResetsAt()).UTC()
	}
	return out
}

func toHealthStatus(r healthuc.Report) HealthStatus {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:             string(r.Status),
		Checks:             checks,
		CollectionsReady:   r.Ready,
		CollectionsSkipped: r.Skipped,
	}
}
