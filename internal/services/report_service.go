package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// ReportService builds period summaries for the dashboard, CLI and export.
type ReportService struct {
	store store.TransactionStore
}

func NewReportService(st store.TransactionStore) *ReportService {
	return &ReportService{store: st}
}

// Summary aggregates the period of granularity g containing ref.
func (s *ReportService) Summary(ctx context.Context, ref core.Date, g core.Granularity) (core.PeriodSummary, error) {
	p, err := core.PeriodFor(ref, g)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	txs, err := s.store.ListTransactions(ctx, &p)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("list transactions: %w", err)
	}
	// The store already narrows by range; filtering again keeps the
	// summary correct for stores that return a superset.
	inPeriod, err := core.FilterByPeriod(txs, ref, g)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	return core.Summarize(inPeriod, p, g), nil
}
