package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

const categoryColumns = `id, name, type, icon, color, is_custom, created_at`

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c         core.Category
		typ, icon string
		custom    int
		created   string
	)
	if err := row.Scan(&c.ID, &c.Name, &typ, &icon, &c.Color, &custom, &created); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	c.Icon = core.Icon(icon).OrFallback()
	c.IsCustom = custom != 0
	c.CreatedAt = parseTime(created)
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY type, name`)
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

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, core.NewStoreError("get category", notFound(err, "category", id))
	}
	return c, nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.Icon = c.Icon.OrFallback()
	c.CreatedAt = r.now().UTC()

	err := r.withTx(ctx, "insert category", func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE name = ?`, c.Name).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return core.ErrDuplicateName
		}
		return tx.QueryRowContext(ctx,
			`INSERT INTO categories (name, type, icon, color, is_custom, created_at)
			 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			c.Name, string(c.Type), string(c.Icon), c.Color, boolToInt(c.IsCustom), c.CreatedAt.Format(timeLayout),
		).Scan(&c.ID)
	})
	if err != nil {
		return core.Category{}, err
	}

	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name, "type", c.Type)
	return c, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.withTx(ctx, "delete category", func(tx *sql.Tx) error {
		var used int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&used); err != nil {
			return err
		}
		if used > 0 {
			return core.ErrCategoryInUse
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("delete budgets: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.NewNotFoundError("category", id)
		}
		return nil
	})
}
