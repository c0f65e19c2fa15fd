package core

import "github.com/shopspring/decimal"

// FallbackBudgetCategoryName labels a budget whose category is gone.
const FallbackBudgetCategoryName = "Unknown"

// BudgetStatus is the spending state of a budget.
type BudgetStatus string

const (
	StatusNormal  BudgetStatus = "normal"
	StatusWarning BudgetStatus = "warning"
	StatusOver    BudgetStatus = "over"
)

// WarningPercent is where a budget stops being normal.
const WarningPercent = 80

// BudgetWithSpending is a budget joined with its category and month spend.
type BudgetWithSpending struct {
	Budget
	CategoryName  string          `json:"category_name"`
	CategoryColor string          `json:"category_color"`
	CategoryIcon  Icon            `json:"category_icon"`
	Spent         Money           `json:"spent"`
	Percentage    decimal.Decimal `json:"percentage"`
	Status        BudgetStatus    `json:"status"`
	OverAmount    Money           `json:"over_amount"`
	Remaining     Money           `json:"remaining"`
}

var (
	hundred        = decimal.NewFromInt(100)
	warningPercent = decimal.NewFromInt(WarningPercent)
)

// Classify compares spent against limit in exact decimal arithmetic so the
// 80% and 100% boundaries hold for any magnitude. limit must be positive.
func Classify(spent, limit Money) BudgetStatus {
	switch {
	case spent.Cents > limit.Cents:
		return StatusOver
	case decimal.NewFromInt(spent.Cents).Mul(hundred).
		GreaterThanOrEqual(decimal.NewFromInt(limit.Cents).Mul(warningPercent)):
		return StatusWarning
	default:
		return StatusNormal
	}
}

// Percentage returns spent/limit*100 rounded to two decimals. A non-positive
// limit yields zero.
func Percentage(spent, limit Money) decimal.Decimal {
	if limit.Cents <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(spent.Cents).
		Mul(hundred).
		DivRound(decimal.NewFromInt(limit.Cents), 2)
}

// EvaluateBudget derives the spending view of b. cat may be nil.
func EvaluateBudget(b Budget, cat *Category, spent Money) BudgetWithSpending {
	out := BudgetWithSpending{
		Budget:        b,
		CategoryName:  FallbackBudgetCategoryName,
		CategoryColor: FallbackColor,
		CategoryIcon:  IconFallback,
		Spent:         spent,
		Percentage:    Percentage(spent, b.LimitAmount),
		Status:        Classify(spent, b.LimitAmount),
	}
	if cat != nil {
		if cat.Name != "" {
			out.CategoryName = cat.Name
		}
		out.CategoryColor = cat.DisplayColor()
		out.CategoryIcon = cat.Icon.OrFallback()
	}
	if out.Status == StatusOver {
		out.OverAmount = spent.Sub(b.LimitAmount)
	} else {
		out.Remaining = b.LimitAmount.Sub(spent)
	}
	return out
}

// IsAlert reports whether the budget is at or above the warning threshold.
func (b BudgetWithSpending) IsAlert() bool {
	return b.Status != StatusNormal
}

// FilterAlerts keeps budgets at or above the warning threshold.
func FilterAlerts(budgets []BudgetWithSpending) []BudgetWithSpending {
	out := make([]BudgetWithSpending, 0, len(budgets))
	for _, b := range budgets {
		if b.IsAlert() {
			out = append(out, b)
		}
	}
	return out
}
