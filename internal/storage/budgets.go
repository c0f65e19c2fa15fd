package storage

import (
	"context"
	"database/sql"
	"log/slog"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const budgetColumns = `id, category_id, limit_cents, month, created_at, updated_at`

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b                       core.Budget
		month, created, updated string
	)
	if err := row.Scan(&b.ID, &b.CategoryID, &b.LimitAmount.Cents, &month, &created, &updated); err != nil {
		return core.Budget{}, err
	}
	m, err := parseDate(month)
	if err != nil {
		return core.Budget{}, err
	}
	b.Month = m
	b.CreatedAt = parseTime(created)
	b.UpdatedAt = parseTime(updated)
	return b, nil
}

func (r *SQLiteRepository) ListBudgetsForMonth(ctx context.Context, month core.Date) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE month = ? ORDER BY id`, month.MonthStart().String())
	if err != nil {
		return nil, core.NewStoreError("list budgets", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, core.NewStoreError("scan budget", err)
		}
		out = append(out, b)
	}
	return out, core.NewStoreError("list budgets", rows.Err())
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
	if err != nil {
		return core.Budget{}, core.NewStoreError("get budget", notFound(err, "budget", id))
	}
	return b, nil
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	now := r.timestamp()

	var out core.Budget
	err := r.withTx(ctx, "upsert budget", func(tx *sql.Tx) error {
		if err := categoryExists(ctx, tx, b.CategoryID); err != nil {
			return err
		}
		var err error
		out, err = scanBudget(tx.QueryRowContext(ctx,
			`INSERT INTO budgets (category_id, limit_cents, month, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (category_id, month) DO UPDATE
			     SET limit_cents = excluded.limit_cents, updated_at = excluded.updated_at
			 RETURNING `+budgetColumns,
			b.CategoryID, b.LimitAmount.Cents, b.Month.String(), now, now))
		return err
	})
	if err != nil {
		return core.Budget{}, err
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldBudgetID, out.ID,
		applog.FieldCategoryID, out.CategoryID,
		applog.FieldMonth, out.Month.MonthKey(),
		"limit_cents", out.LimitAmount.Cents)
	return out, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return core.NewStoreError("delete budget", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("budget", id)
	}
	return nil
}

func (r *SQLiteRepository) SumExpenseAmount(ctx context.Context, categoryID int64, month core.Date) (core.Money, error) {
	start := month.MonthStart()
	var sum int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE type = 'expense' AND category_id = ? AND date >= ? AND date < ?`,
		categoryID, start.String(), start.NextMonthStart().String(),
	).Scan(&sum)
	if err != nil {
		return core.Money{}, core.NewStoreError("sum expenses", err)
	}
	return core.Money{Cents: sum}, nil
}
