package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const transactionSelect = `
SELECT t.id, t.type, t.amount_cents, t.category_id, t.date, t.description,
       t.is_recurring, t.recurring_frequency, t.recurring_end_date, t.created_at,
       c.id, c.name, c.type, c.icon, c.color, c.is_custom, c.created_at
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id`

const transactionOrder = ` ORDER BY t.date DESC, t.id DESC`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                    core.Transaction
		typ, date, freq, end string
		created              string
		recurring            int
	)
	if err := row.Scan(&t.ID, &typ, &t.Amount.Cents, &t.CategoryID, &date, &t.Description,
		&recurring, &freq, &end, &created); err != nil {
		return core.Transaction{}, err
	}
	return fillTransaction(t, typ, date, freq, end, created, recurring)
}

func fillTransaction(t core.Transaction, typ, date, freq, end, created string, recurring int) (core.Transaction, error) {
	var err error
	t.Type = core.TransactionType(typ)
	if t.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, err
	}
	if t.RecurringEndDate, err = parseDate(end); err != nil {
		return core.Transaction{}, err
	}
	t.IsRecurring = recurring != 0
	t.RecurringFrequency = core.Frequency(freq)
	t.CreatedAt = parseTime(created)
	return t, nil
}

func scanTransactionWithCategory(row rowScanner) (core.TransactionWithCategory, error) {
	var (
		t                    core.Transaction
		typ, date, freq, end string
		created              string
		recurring            int

		catID                                        sql.NullInt64
		catName, catType, catIcon, catColor, catTime sql.NullString
		catCustom                                    sql.NullInt64
	)
	err := row.Scan(&t.ID, &typ, &t.Amount.Cents, &t.CategoryID, &date, &t.Description,
		&recurring, &freq, &end, &created,
		&catID, &catName, &catType, &catIcon, &catColor, &catCustom, &catTime)
	if err != nil {
		return core.TransactionWithCategory{}, err
	}
	t, err = fillTransaction(t, typ, date, freq, end, created, recurring)
	if err != nil {
		return core.TransactionWithCategory{}, err
	}

	out := core.TransactionWithCategory{Transaction: t}
	if catID.Valid {
		out.Category = &core.Category{
			ID:        catID.Int64,
			Name:      catName.String,
			Type:      core.TransactionType(catType.String),
			Icon:      core.Icon(catIcon.String).OrFallback(),
			Color:     catColor.String,
			IsCustom:  catCustom.Int64 != 0,
			CreatedAt: parseTime(catTime.String),
		}
	}
	return out, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, period *core.Period) ([]core.TransactionWithCategory, error) {
	query := transactionSelect
	var args []any
	if period != nil {
		query += ` WHERE t.date >= ? AND t.date <= ?`
		args = append(args, period.Start.String(), period.End.String())
	}
	rows, err := r.db.QueryContext(ctx, query+transactionOrder, args...)
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

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.TransactionWithCategory, error) {
	row := r.db.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ?`, id)
	tx, err := scanTransactionWithCategory(row)
	if err != nil {
		return core.TransactionWithCategory{}, core.NewStoreError("get transaction", notFound(err, "transaction", id))
	}
	return tx, nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.CreatedAt = r.now().UTC()

	err := r.withTx(ctx, "insert transaction", func(tx *sql.Tx) error {
		if err := categoryExists(ctx, tx, t.CategoryID); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`INSERT INTO transactions (type, amount_cents, category_id, date, description,
			     is_recurring, recurring_frequency, recurring_end_date, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			string(t.Type), t.Amount.Cents, t.CategoryID, t.Date.String(), t.Description,
			boolToInt(t.IsRecurring), string(t.RecurringFrequency), t.RecurringEndDate.String(),
			t.CreatedAt.Format(timeLayout),
		).Scan(&t.ID)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	fields := applog.NewFields().
		WithComponent(applog.ComponentStorage).
		WithOperation(applog.OpCreate).
		WithTransaction(t.ID, string(t.Type), t.Amount.Cents, t.CategoryID)
	slog.InfoContext(ctx, "Transaction saved to SQLite", append(fields.ToSlice(), "date", t.Date.String())...)
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	var next core.Transaction
	err := r.withTx(ctx, "update transaction", func(tx *sql.Tx) error {
		cur, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT id, type, amount_cents, category_id, date, description,
			        is_recurring, recurring_frequency, recurring_end_date, created_at
			 FROM transactions WHERE id = ?`, id))
		if err != nil {
			return notFound(err, "transaction", id)
		}
		next = patch.Apply(cur)
		if err := next.Validate(); err != nil {
			return err
		}
		if err := categoryExists(ctx, tx, next.CategoryID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET type = ?, amount_cents = ?, category_id = ?, date = ?,
			     description = ?, is_recurring = ?, recurring_frequency = ?, recurring_end_date = ?
			 WHERE id = ?`,
			string(next.Type), next.Amount.Cents, next.CategoryID, next.Date.String(),
			next.Description, boolToInt(next.IsRecurring), string(next.RecurringFrequency),
			next.RecurringEndDate.String(), id)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return next, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return core.NewStoreError("delete transaction", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NewNotFoundError("transaction", id)
	}
	return nil
}

func categoryExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, id).Scan(&one)
	return notFound(err, "category", id)
}
