package core

import "sort"

// FallbackBucketName groups expenses whose category could not be joined.
const FallbackBucketName = "Other"

// Totals are the income, expense and net sums of a transaction set.
type Totals struct {
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
	Net      Money `json:"net"`
}

// CategoryExpenseBucket represents an amount aggregated by category name.
type CategoryExpenseBucket struct {
	CategoryName string `json:"category_name"`
	Amount       Money  `json:"amount"`
	Color        string `json:"color"`
	Icon         Icon   `json:"icon"`
}

// PeriodSummary is a compact summary for one reporting period.
type PeriodSummary struct {
	Granularity      Granularity             `json:"granularity"`
	Period           Period                  `json:"period"`
	Totals           Totals                  `json:"totals"`
	ByCategory       []CategoryExpenseBucket `json:"by_category"`
	TransactionCount int                     `json:"transaction_count"`
}

// Aggregate sums income and expenses. Net is exact.
func Aggregate(txs []TransactionWithCategory) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income = t.Income.Add(tx.Amount)
		case Expense:
			t.Expenses = t.Expenses.Add(tx.Amount)
		}
	}
	t.Net = t.Income.Sub(t.Expenses)
	return t
}

// ExpensesOnly keeps the expense transactions, preserving order.
func ExpensesOnly(txs []TransactionWithCategory) []TransactionWithCategory {
	out := make([]TransactionWithCategory, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == Expense {
			out = append(out, tx)
		}
	}
	return out
}

// GroupExpensesByCategory buckets transactions by their joined category
// name. Buckets appear in order of first occurrence and keep the color and
// icon of the first transaction seen. The caller is expected to pass
// expenses only; the type is not re-checked so the bucket total always
// equals the input total.
func GroupExpensesByCategory(txs []TransactionWithCategory) []CategoryExpenseBucket {
	buckets := make([]CategoryExpenseBucket, 0)
	index := make(map[string]int)
	for _, tx := range txs {
		name, color, icon := FallbackBucketName, FallbackColor, IconFallback
		if tx.Category != nil {
			if tx.Category.Name != "" {
				name = tx.Category.Name
			}
			color = tx.Category.DisplayColor()
			icon = tx.Category.Icon.OrFallback()
		}
		if i, ok := index[name]; ok {
			buckets[i].Amount = buckets[i].Amount.Add(tx.Amount)
			continue
		}
		index[name] = len(buckets)
		buckets = append(buckets, CategoryExpenseBucket{
			CategoryName: name,
			Amount:       tx.Amount,
			Color:        color,
			Icon:         icon,
		})
	}
	return buckets
}

// SortBucketsByAmount returns a copy sorted by amount, largest first. Ties
// keep their original order.
func SortBucketsByAmount(buckets []CategoryExpenseBucket) []CategoryExpenseBucket {
	out := make([]CategoryExpenseBucket, len(buckets))
	copy(out, buckets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// Summarize builds the PeriodSummary of txs, which must already be
// restricted to the period.
func Summarize(txs []TransactionWithCategory, p Period, g Granularity) PeriodSummary {
	return PeriodSummary{
		Granularity:      g,
		Period:           p,
		Totals:           Aggregate(txs),
		ByCategory:       GroupExpensesByCategory(ExpensesOnly(txs)),
		TransactionCount: len(txs),
	}
}
