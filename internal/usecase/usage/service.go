// Package usage builds token-spend reports from the shared budget tracker.
package usage

import (
	"context"
	"time"

	domusage "github.com/plenario-ai/plenario/internal/domain/usage"
	"github.com/plenario-ai/plenario/internal/domain/usage/budget"
	"github.com/plenario-ai/plenario/internal/domain/usage/metrics"
)

// Service handles usage reporting.
type Service struct {
	br             BudgetReader
	costPerMillion float64
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br}
}

// WithCostRate sets the embedding price in dollars per million tokens,
// used to estimate report cost. Zero disables the estimate.
func (s *Service) WithCostRate(dollarsPerMillionTokens float64) *Service {
	s.costPerMillion = dollarsPerMillionTokens
	return s
}

// GetReport builds a usage report for the given period. An unknown period
// falls back to total.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := time.Now().UTC()
	var start, end int64
	var limit, used, remaining int64

	switch period {
	case domusage.PeriodDay:
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)
		start = dayStart.UnixMilli()
		end = dayEnd.UnixMilli()
		if s.br != nil {
			limit = s.br.DailyLimit()
			used = s.br.DailyUsed()
			remaining = s.br.RemainingDaily()
		}
	case domusage.PeriodMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, 0)
		start = monthStart.UnixMilli()
		end = monthEnd.UnixMilli()
		if s.br != nil {
			limit = s.br.MonthlyLimit()
			used = s.br.MonthlyUsed()
			remaining = s.br.RemainingMonthly()
		}
	default:
		// total — no period boundaries
		if s.br != nil {
			limit = s.br.MonthlyLimit()
			used = s.br.MonthlyUsed()
			remaining = s.br.RemainingMonthly()
		}
	}

	exhausted := limit > 0 && remaining <= 0
	resetsAt := end

	// 1 USD = 1000 millidollars, rate is per million tokens.
	cost := int(float64(used) * s.costPerMillion / 1000.0)

	b := budget.New(int(limit), int(remaining), exhausted, resetsAt)
	m := metrics.New(0, int(used), cost) // per-period request counts are not tracked

	return domusage.NewReport(period, start, end, m, b)
}
