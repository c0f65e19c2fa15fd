package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// BudgetStore is the slice of the record store budgets need.
type BudgetStore interface {
	store.CategoryStore
	store.BudgetStore
}

// BudgetService evaluates monthly budgets against actual spending.
type BudgetService struct {
	store BudgetStore
	spend *cache.SpendCache
}

// NewBudgetService wires the service. spend may be nil.
func NewBudgetService(st BudgetStore, spend *cache.SpendCache) *BudgetService {
	return &BudgetService{store: st, spend: spend}
}

// ListBudgetsWithSpending returns every budget of month with its spend and
// status. Any store failure fails the whole call.
func (s *BudgetService) ListBudgetsWithSpending(ctx context.Context, month core.Date) ([]core.BudgetWithSpending, error) {
	if month.IsZero() {
		return nil, core.NewValidationError("month", "is required")
	}
	month = month.MonthStart()

	budgets, err := s.store.ListBudgetsForMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(budgets) == 0 {
		return []core.BudgetWithSpending{}, nil
	}

	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	byID := make(map[int64]*core.Category, len(cats))
	for i := range cats {
		byID[cats[i].ID] = &cats[i]
	}

	out := make([]core.BudgetWithSpending, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.spent(ctx, b.CategoryID, month)
		if err != nil {
			return nil, err
		}
		out = append(out, core.EvaluateBudget(b, byID[b.CategoryID], spent))
	}
	return out, nil
}

// ComputeAlerts returns the budgets of month at or above the warning
// threshold.
func (s *BudgetService) ComputeAlerts(ctx context.Context, month core.Date) ([]core.BudgetWithSpending, error) {
	budgets, err := s.ListBudgetsWithSpending(ctx, month)
	if err != nil {
		return nil, err
	}
	return core.FilterAlerts(budgets), nil
}

// SetBudget creates or replaces the limit of categoryID for the month
// containing month.
func (s *BudgetService) SetBudget(ctx context.Context, categoryID int64, limit core.Money, month core.Date) (core.Budget, error) {
	if limit.Cents <= 0 || limit.Cents > core.MaxCents {
		return core.Budget{}, core.ErrInvalidLimit
	}
	if month.IsZero() {
		return core.Budget{}, core.NewValidationError("month", "is required")
	}
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return core.Budget{}, fmt.Errorf("get category: %w", err)
	}

	b, err := s.store.UpsertBudget(ctx, core.Budget{
		CategoryID:  categoryID,
		LimitAmount: limit,
		Month:       month.MonthStart(),
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget set",
		applog.FieldBudgetID, b.ID,
		applog.FieldCategoryID, b.CategoryID,
		applog.FieldMonth, b.Month.MonthKey(),
		"limit", b.LimitAmount.String())
	return b, nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, id int64) error {
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget deleted", applog.FieldOperation, applog.OpDelete, applog.FieldBudgetID, id)
	return nil
}

func (s *BudgetService) spent(ctx context.Context, categoryID int64, month core.Date) (core.Money, error) {
	cached, gen, ok := s.spend.Lookup(month, categoryID)
	if ok {
		return cached, nil
	}
	spent, err := s.store.SumExpenseAmount(ctx, categoryID, month)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses for category %d: %w", categoryID, err)
	}
	s.spend.Set(month, categoryID, spent, gen)
	return spent, nil
}
