package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func categoryByName(t *testing.T, repo *SQLiteRepository, name string) core.Category {
	t.Helper()
	cats, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q not seeded", name)
	return core.Category{}
}

func TestMigrationsSeedDefaultCategories(t *testing.T) {
	repo := newTestRepository(t)
	cats, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, len(core.DefaultCategories()))

	food := categoryByName(t, repo, "Food")
	assert.Equal(t, core.Expense, food.Type)
	assert.Equal(t, core.IconFood, food.Icon)
	assert.False(t, food.IsCustom)
	assert.False(t, food.CreatedAt.IsZero())
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	version, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestCategoryInsertAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	c, err := repo.InsertCategory(ctx, core.Category{Name: "Pets", Type: core.Expense, Icon: core.IconHealth, IsCustom: true})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)

	got, err := repo.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCustom)
	assert.Equal(t, core.IconHealth, got.Icon)

	_, err = repo.InsertCategory(ctx, core.Category{Name: "pets", Type: core.Expense})
	assert.ErrorIs(t, err, core.ErrValidation)

	require.NoError(t, repo.DeleteCategory(ctx, c.ID))
	_, err = repo.GetCategory(ctx, c.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteCategory(ctx, c.ID), core.ErrNotFound)
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	food := categoryByName(t, repo, "Food")

	in := core.Transaction{
		Type:               core.Expense,
		Amount:             core.Money{Cents: 1999},
		CategoryID:         food.ID,
		Date:               core.NewDate(2024, 6, 12),
		Description:        " lunch ",
		IsRecurring:        true,
		RecurringFrequency: core.Weekly,
		RecurringEndDate:   core.NewDate(2024, 12, 31),
	}
	saved, err := repo.InsertTransaction(ctx, in)
	require.NoError(t, err)

	got, err := repo.GetTransaction(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "lunch", got.Description)
	assert.Equal(t, core.NewDate(2024, 6, 12), got.Date)
	assert.Equal(t, core.NewDate(2024, 12, 31), got.RecurringEndDate)
	assert.Equal(t, core.Weekly, got.RecurringFrequency)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Food", got.Category.Name)

	off := false
	updated, err := repo.UpdateTransaction(ctx, saved.ID, core.TransactionPatch{IsRecurring: &off})
	require.NoError(t, err)
	assert.False(t, updated.IsRecurring)
	assert.True(t, updated.RecurringEndDate.IsEmpty())

	bad := int64(9999)
	_, err = repo.UpdateTransaction(ctx, saved.ID, core.TransactionPatch{CategoryID: &bad})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.UpdateTransaction(ctx, 4242, core.TransactionPatch{IsRecurring: &off})
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.DeleteTransaction(ctx, saved.ID))
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, saved.ID), core.ErrNotFound)
}

func TestListTransactionsByPeriod(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	food := categoryByName(t, repo, "Food")

	for _, d := range []core.Date{
		core.NewDate(2024, 6, 8),
		core.NewDate(2024, 6, 9),
		core.NewDate(2024, 6, 15),
		core.NewDate(2024, 6, 16),
	} {
		_, err := repo.InsertTransaction(ctx, core.Transaction{Type: core.Expense, Amount: core.Money{Cents: 100}, CategoryID: food.ID, Date: d})
		require.NoError(t, err)
	}

	p, err := core.PeriodFor(core.NewDate(2024, 6, 12), core.GranularityWeek)
	require.NoError(t, err)
	got, err := repo.ListTransactions(ctx, &p)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-06-15", got[0].Date.String())
	assert.Equal(t, "2024-06-09", got[1].Date.String())

	all, err := repo.ListTransactions(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestBudgetsUpsertSumAndCascade(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	pets, err := repo.InsertCategory(ctx, core.Category{Name: "Pets", Type: core.Expense, IsCustom: true})
	require.NoError(t, err)
	month := core.NewDate(2024, 6, 1)

	first, err := repo.UpsertBudget(ctx, core.Budget{CategoryID: pets.ID, LimitAmount: core.Money{Cents: 10000}, Month: month})
	require.NoError(t, err)
	second, err := repo.UpsertBudget(ctx, core.Budget{CategoryID: pets.ID, LimitAmount: core.Money{Cents: 15000}, Month: month})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(15000), second.LimitAmount.Cents)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	_, err = repo.UpsertBudget(ctx, core.Budget{CategoryID: 9999, LimitAmount: core.Money{Cents: 1}, Month: month})
	assert.ErrorIs(t, err, core.ErrNotFound)

	budgets, err := repo.ListBudgetsForMonth(ctx, core.NewDate(2024, 6, 20))
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, month, budgets[0].Month)

	for _, d := range []core.Date{core.NewDate(2024, 5, 31), core.NewDate(2024, 6, 1), core.NewDate(2024, 6, 30), core.NewDate(2024, 7, 1)} {
		_, err := repo.InsertTransaction(ctx, core.Transaction{Type: core.Expense, Amount: core.Money{Cents: 2500}, CategoryID: pets.ID, Date: d})
		require.NoError(t, err)
	}
	sum, err := repo.SumExpenseAmount(ctx, pets.ID, month)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), sum.Cents)

	assert.ErrorIs(t, repo.DeleteCategory(ctx, pets.ID), core.ErrValidation)

	txs, err := repo.ListTransactions(ctx, nil)
	require.NoError(t, err)
	for _, tx := range txs {
		require.NoError(t, repo.DeleteTransaction(ctx, tx.ID))
	}
	require.NoError(t, repo.DeleteCategory(ctx, pets.ID))
	_, err = repo.GetBudget(ctx, first.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
