// Package store defines the record store ports the services depend on.
package store

import (
	"context"

	"fintrack/internal/core"
)

type (
	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		InsertCategory(ctx context.Context, c core.Category) (core.Category, error)
		// DeleteCategory fails with a validation error while transactions
		// reference the category. Its budgets are removed with it.
		DeleteCategory(ctx context.Context, id int64) error
	}

	TransactionStore interface {
		// ListTransactions returns transactions joined with their category,
		// newest date first. A nil period lists everything.
		ListTransactions(ctx context.Context, period *core.Period) ([]core.TransactionWithCategory, error)
		GetTransaction(ctx context.Context, id int64) (core.TransactionWithCategory, error)
		InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		// UpdateTransaction applies the patch and re-validates the result
		// before writing it.
		UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	BudgetStore interface {
		ListBudgetsForMonth(ctx context.Context, month core.Date) ([]core.Budget, error)
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
		// UpsertBudget updates the limit of the (category, month) budget if
		// one exists, otherwise inserts it.
		UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, id int64) error
		// SumExpenseAmount totals expense transactions of the category dated
		// in [month, next month).
		SumExpenseAmount(ctx context.Context, categoryID int64, month core.Date) (core.Money, error)
	}

	// RecordStore is the full persistence surface.
	RecordStore interface {
		CategoryStore
		TransactionStore
		BudgetStore
		Ping(ctx context.Context) error
	}
)
