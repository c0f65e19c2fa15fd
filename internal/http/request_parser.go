package http

import (
	"strings"

	"fintrack/internal/core"
)

// transactionRequest is the body of POST /api/transactions.
type transactionRequest struct {
	Type               string          `json:"type"`
	Amount             core.Money      `json:"amount"`
	CategoryID         int64           `json:"category_id"`
	Date               core.Date       `json:"date"`
	Description        string          `json:"description"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurringFrequency *core.Frequency `json:"recurring_frequency"`
	RecurringEndDate   core.Date       `json:"recurring_end_date"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		Type:             typ,
		Amount:           req.Amount,
		CategoryID:       req.CategoryID,
		Date:             req.Date,
		Description:      strings.TrimSpace(req.Description),
		IsRecurring:      req.IsRecurring,
		RecurringEndDate: req.RecurringEndDate,
	}
	if req.RecurringFrequency != nil {
		tx.RecurringFrequency = *req.RecurringFrequency
	}
	return tx, nil
}

// budgetRequest is the body of PUT /api/budgets. Month accepts YYYY-MM or a
// full date.
type budgetRequest struct {
	CategoryID  int64      `json:"category_id"`
	LimitAmount core.Money `json:"limit_amount"`
	Month       string     `json:"month"`
}

func (req budgetRequest) month() (core.Date, error) {
	if strings.TrimSpace(req.Month) == "" {
		return core.Date{}, core.NewValidationError("month", "is required")
	}
	return core.ParseMonth(strings.TrimSpace(req.Month))
}

// listResponse wraps collections so the top-level JSON value is an object.
type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}
