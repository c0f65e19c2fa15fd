// Package postgres is the PostgreSQL record store.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ store.RecordStore = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

// Connect migrates the schema and opens a pool.
func Connect(ctx context.Context, url string) (*Repository, error) {
	if _, err := RunMigrations(url); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// RunMigrations applies pending migrations and returns the schema version.
func RunMigrations(url string) (uint, error) {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", d, migrateURL(url))
	if err != nil {
		return 0, fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("run migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("database is dirty at version %d", version)
	}
	return version, nil
}

// migrateURL rewrites a postgres:// URL to the scheme of the pgx/v5
// migrate driver.
func migrateURL(url string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(url, prefix) {
			return "pgx5://" + strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return core.NewStoreError("ping", r.pool.Ping(ctx))
}

func (r *Repository) withTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	return core.NewStoreError(op, pgx.BeginFunc(ctx, r.pool, fn))
}

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NewNotFoundError(entity, id)
	}
	return err
}

// Categories

const categoryColumns = `id, name, type, icon, color, is_custom, created_at`

func scanCategory(row pgx.Row) (core.Category, error) {
	var (
		c         core.Category
		typ, icon string
	)
	if err := row.Scan(&c.ID, &c.Name, &typ, &icon, &c.Color, &c.IsCustom, &c.CreatedAt); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	c.Icon = core.Icon(icon).OrFallback()
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY type, name`)
	if err != nil {
		return nil, core.NewStoreError("list categories", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, core.NewStoreError("scan category", err)
		}
		out = append(out, c)
	}
	return out, core.NewStoreError("list categories", rows.Err())
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return core.Category{}, core.NewStoreError("get category", notFound(err, "category", id))
	}
	return c, nil
}

func (r *Repository) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.Icon = c.Icon.OrFallback()

	err := r.withTx(ctx, "insert category", func(tx pgx.Tx) error {
		var taken bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE LOWER(name) = LOWER($1))`, c.Name).Scan(&taken); err != nil {
			return err
		}
		if taken {
			return core.ErrDuplicateName
		}
		return tx.QueryRow(ctx,
			`INSERT INTO categories (name, type, icon, color, is_custom)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			c.Name, string(c.Type), string(c.Icon), c.Color, c.IsCustom,
		).Scan(&c.ID, &c.CreatedAt)
	})
	if err != nil {
		return core.Category{}, err
	}
	slog.InfoContext(ctx, "Category saved to Postgres", "id", c.ID, "name", c.Name)
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	return r.withTx(ctx, "delete category", func(tx pgx.Tx) error {
		var used bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE category_id = $1)`, id).Scan(&used); err != nil {
			return err
		}
		if used {
			return core.ErrCategoryInUse
		}
		tag, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return core.NewNotFoundError("category", id)
		}
		return nil
	})
}

// Transactions

const transactionSelect = `
SELECT t.id, t.type, t.amount_cents, t.category_id, t.date, t.description,
       t.is_recurring, t.recurring_frequency, t.recurring_end_date, t.created_at,
       c.id, c.name, c.type, c.icon, c.color, c.is_custom, c.created_at
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id`

func scanTransactionWithCategory(row pgx.Row) (core.TransactionWithCategory, error) {
	var (
		t          core.Transaction
		typ, freq  string
		date       time.Time
		end        *time.Time
		catID      *int64
		catName    *string
		catType    *string
		catIcon    *string
		catColor   *string
		catCustom  *bool
		catCreated *time.Time
	)
	err := row.Scan(&t.ID, &typ, &t.Amount.Cents, &t.CategoryID, &date, &t.Description,
		&t.IsRecurring, &freq, &end, &t.CreatedAt,
		&catID, &catName, &catType, &catIcon, &catColor, &catCustom, &catCreated)
	if err != nil {
		return core.TransactionWithCategory{}, err
	}
	t.Type = core.TransactionType(typ)
	t.RecurringFrequency = core.Frequency(freq)
	t.Date = core.DateOf(date)
	if end != nil {
		t.RecurringEndDate = core.DateOf(*end)
	}

	out := core.TransactionWithCategory{Transaction: t}
	if catID != nil {
		out.Category = &core.Category{
			ID:        *catID,
			Name:      *catName,
			Type:      core.TransactionType(*catType),
			Icon:      core.Icon(*catIcon).OrFallback(),
			Color:     *catColor,
			IsCustom:  *catCustom,
			CreatedAt: *catCreated,
		}
	}
	return out, nil
}

func (r *Repository) ListTransactions(ctx context.Context, period *core.Period) ([]core.TransactionWithCategory, error) {
	query := transactionSelect
	var args []any
	if period != nil {
		query += ` WHERE t.date BETWEEN $1 AND $2`
		args = append(args, period.Start.Time, period.End.Time)
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY t.date DESC, t.id DESC`, args...)
	if err != nil {
		return nil, core.NewStoreError("list transactions", err)
	}
	defer rows.Close()

	out := make([]core.TransactionWithCategory, 0)
	for rows.Next() {
		tx, err := scanTransactionWithCategory(rows)
		if err != nil {
			return nil, core.NewStoreError("scan transaction", err)
		}
		out = append(out, tx)
	}
	return out, core.NewStoreError("list transactions", rows.Err())
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.TransactionWithCategory, error) {
	tx, err := scanTransactionWithCategory(r.pool.QueryRow(ctx, transactionSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return core.TransactionWithCategory{}, core.NewStoreError("get transaction", notFound(err, "transaction", id))
	}
	return tx, nil
}

func nullableDate(d core.Date) *time.Time {
	if d.IsEmpty() {
		return nil
	}
	return &d.Time
}

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	err := r.withTx(ctx, "insert transaction", func(tx pgx.Tx) error {
		if err := categoryExists(ctx, tx, t.CategoryID); err != nil {
			return err
		}
		return tx.QueryRow(ctx,
			`INSERT INTO transactions (type, amount_cents, category_id, date, description,
			     is_recurring, recurring_frequency, recurring_end_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at`,
			string(t.Type), t.Amount.Cents, t.CategoryID, t.Date.Time, t.Description,
			t.IsRecurring, string(t.RecurringFrequency), nullableDate(t.RecurringEndDate),
		).Scan(&t.ID, &t.CreatedAt)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction saved to Postgres",
		"id", t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	var next core.Transaction
	err := r.withTx(ctx, "update transaction", func(tx pgx.Tx) error {
		cur, err := scanTransactionWithCategory(tx.QueryRow(ctx, transactionSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id))
		if err != nil {
			return notFound(err, "transaction", id)
		}
		next = patch.Apply(cur.Transaction)
		if err := next.Validate(); err != nil {
			return err
		}
		if err := categoryExists(ctx, tx, next.CategoryID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE transactions SET type = $1, amount_cents = $2, category_id = $3, date = $4,
			     description = $5, is_recurring = $6, recurring_frequency = $7, recurring_end_date = $8
			 WHERE id = $9`,
			string(next.Type), next.Amount.Cents, next.CategoryID, next.Date.Time, next.Description,
			next.IsRecurring, string(next.RecurringFrequency), nullableDate(next.RecurringEndDate), id)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return next, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return core.NewStoreError("delete transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFoundError("transaction", id)
	}
	return nil
}

func categoryExists(ctx context.Context, tx pgx.Tx, id int64) error {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM categories WHERE id = $1`, id).Scan(&one)
	return notFound(err, "category", id)
}

// Budgets

const budgetColumns = `id, category_id, limit_cents, month, created_at, updated_at`

func scanBudget(row pgx.Row) (core.Budget, error) {
	var (
		b     core.Budget
		month time.Time
	)
	if err := row.Scan(&b.ID, &b.CategoryID, &b.LimitAmount.Cents, &month, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return core.Budget{}, err
	}
	b.Month = core.DateOf(month)
	return b, nil
}

func (r *Repository) ListBudgetsForMonth(ctx context.Context, month core.Date) ([]core.Budget, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE month = $1 ORDER BY id`, month.MonthStart().Time)
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

func (r *Repository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	b, err := scanBudget(r.pool.QueryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = $1`, id))
	if err != nil {
		return core.Budget{}, core.NewStoreError("get budget", notFound(err, "budget", id))
	}
	return b, nil
}

func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	var out core.Budget
	err := r.withTx(ctx, "upsert budget", func(tx pgx.Tx) error {
		if err := categoryExists(ctx, tx, b.CategoryID); err != nil {
			return err
		}
		var err error
		out, err = scanBudget(tx.QueryRow(ctx,
			`INSERT INTO budgets (category_id, limit_cents, month)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (category_id, month) DO UPDATE
			     SET limit_cents = EXCLUDED.limit_cents, updated_at = NOW()
			 RETURNING `+budgetColumns,
			b.CategoryID, b.LimitAmount.Cents, b.Month.Time))
		return err
	})
	if err != nil {
		return core.Budget{}, err
	}
	return out, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return core.NewStoreError("delete budget", err)
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFoundError("budget", id)
	}
	return nil
}

func (r *Repository) SumExpenseAmount(ctx context.Context, categoryID int64, month core.Date) (core.Money, error) {
	start := month.MonthStart()
	var sum int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0)::BIGINT FROM transactions
		 WHERE type = 'expense' AND category_id = $1 AND date >= $2 AND date < $3`,
		categoryID, start.Time, start.NextMonthStart().Time,
	).Scan(&sum)
	if err != nil {
		return core.Money{}, core.NewStoreError("sum expenses", err)
	}
	return core.Money{Cents: sum}, nil
}
