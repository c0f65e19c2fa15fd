package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	food   = &Category{ID: 1, Name: "Food", Type: Expense, Icon: IconFood, Color: "#F97316"}
	salary = &Category{ID: 2, Name: "Salary", Type: Income, Icon: IconSalary, Color: "#22C55E"}
)

func TestAggregateMonthScenario(t *testing.T) {
	txs := []TransactionWithCategory{
		tx(1, Income, 100000, NewDate(2024, 6, 1), salary),
		tx(2, Expense, 5000, NewDate(2024, 6, 10), food),
		tx(3, Expense, 7000, NewDate(2024, 5, 31), food),
	}

	inMonth, err := FilterByPeriod(txs, NewDate(2024, 6, 15), GranularityMonth)
	require.NoError(t, err)

	got := Aggregate(inMonth)
	assert.Equal(t, Totals{Income: Cents(100000), Expenses: Cents(5000), Net: Cents(95000)}, got)
}

func TestAggregateExactNet(t *testing.T) {
	txs := []TransactionWithCategory{
		tx(1, Income, 10, NewDate(2024, 1, 1), nil),
		tx(2, Income, 20, NewDate(2024, 1, 1), nil),
		tx(3, Expense, 30, NewDate(2024, 1, 1), nil),
	}
	got := Aggregate(txs)
	assert.Equal(t, int64(30), got.Income.Cents)
	assert.True(t, got.Net.IsZero())

	assert.Equal(t, Totals{}, Aggregate(nil))
}

func TestGroupExpensesByCategory(t *testing.T) {
	noColor := &Category{ID: 9, Name: "Misc", Type: Expense}
	txs := []TransactionWithCategory{
		tx(1, Expense, 1000, NewDate(2024, 6, 1), food),
		tx(2, Expense, 250, NewDate(2024, 6, 2), nil),
		tx(3, Expense, 4000, NewDate(2024, 6, 3), noColor),
		tx(4, Expense, 1500, NewDate(2024, 6, 4), food),
		tx(5, Expense, 50, NewDate(2024, 6, 5), nil),
	}

	got := GroupExpensesByCategory(txs)
	require.Len(t, got, 3)

	assert.Equal(t, CategoryExpenseBucket{CategoryName: "Food", Amount: Cents(2500), Color: "#F97316", Icon: IconFood}, got[0])
	assert.Equal(t, CategoryExpenseBucket{CategoryName: "Other", Amount: Cents(300), Color: FallbackColor, Icon: IconFallback}, got[1])
	assert.Equal(t, CategoryExpenseBucket{CategoryName: "Misc", Amount: Cents(4000), Color: FallbackColor, Icon: IconFallback}, got[2])

	var total int64
	for _, b := range got {
		total += b.Amount.Cents
	}
	assert.Equal(t, Aggregate(txs).Expenses.Cents, total)
}

func TestGroupExpensesKeepsFirstSeenStyle(t *testing.T) {
	red := &Category{ID: 1, Name: "Food", Type: Expense, Color: "#FF0000", Icon: IconFood}
	blue := &Category{ID: 2, Name: "Food", Type: Expense, Color: "#0000FF", Icon: IconShopping}

	got := GroupExpensesByCategory([]TransactionWithCategory{
		tx(1, Expense, 100, NewDate(2024, 6, 1), red),
		tx(2, Expense, 100, NewDate(2024, 6, 1), blue),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "#FF0000", got[0].Color)
	assert.Equal(t, IconFood, got[0].Icon)
	assert.Equal(t, Cents(200), got[0].Amount)
}

func TestGroupExpensesEmpty(t *testing.T) {
	got := GroupExpensesByCategory(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExpensesOnlyAndSort(t *testing.T) {
	txs := []TransactionWithCategory{
		tx(1, Income, 100000, NewDate(2024, 6, 1), salary),
		tx(2, Expense, 100, NewDate(2024, 6, 1), food),
		tx(3, Expense, 900, NewDate(2024, 6, 1), nil),
	}
	expenses := ExpensesOnly(txs)
	require.Len(t, expenses, 2)

	buckets := GroupExpensesByCategory(expenses)
	sorted := SortBucketsByAmount(buckets)
	assert.Equal(t, "Other", sorted[0].CategoryName)
	assert.Equal(t, "Food", sorted[1].CategoryName)
	assert.Equal(t, "Food", buckets[0].CategoryName, "grouping order unchanged")
}

func TestSummarize(t *testing.T) {
	p := MonthPeriod(NewDate(2024, 6, 1))
	txs := []TransactionWithCategory{
		tx(1, Income, 100000, NewDate(2024, 6, 1), salary),
		tx(2, Expense, 5000, NewDate(2024, 6, 10), food),
	}
	s := Summarize(txs, p, GranularityMonth)
	assert.Equal(t, 2, s.TransactionCount)
	assert.Equal(t, Cents(95000), s.Totals.Net)
	require.Len(t, s.ByCategory, 1)
	assert.Equal(t, "Food", s.ByCategory[0].CategoryName)
}
