package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Transaction event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent announces a committed transaction mutation. Consumers
// re-read whatever state they need from the store.
type TransactionEvent struct {
	Action        string    `json:"action"`
	TransactionID int64     `json:"transaction_id"`
	CategoryID    int64     `json:"category_id"`
	Type          string    `json:"type"`
	Month         string    `json:"month"`
	PreviousMonth string    `json:"previous_month,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event for tx. prev is the transaction as it
// was before an update and may be nil.
func NewTransactionEvent(action string, tx core.Transaction, prev *core.Transaction) *TransactionEvent {
	ev := &TransactionEvent{
		Action:        action,
		TransactionID: tx.ID,
		CategoryID:    tx.CategoryID,
		Type:          string(tx.Type),
		Month:         tx.Date.MonthKey(),
		Timestamp:     time.Now(),
	}
	if prev != nil && prev.Date.MonthKey() != ev.Month {
		ev.PreviousMonth = prev.Date.MonthKey()
	}
	return ev
}

// Months returns the first day of every month the event touches.
func (e *TransactionEvent) Months() ([]core.Date, error) {
	keys := []string{e.Month}
	if e.PreviousMonth != "" {
		keys = append(keys, e.PreviousMonth)
	}
	out := make([]core.Date, 0, len(keys))
	for _, k := range keys {
		m, err := core.ParseMonth(k)
		if err != nil {
			return nil, fmt.Errorf("event month %q: %w", k, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ToJSON converts the message to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Month == "" {
		return nil, fmt.Errorf("transaction event without month")
	}
	return &ev, nil
}

// BudgetAlertMessage reports a budget that entered warning or over.
type BudgetAlertMessage struct {
	BudgetID     int64     `json:"budget_id"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Month        string    `json:"month"`
	Status       string    `json:"status"`
	SpentCents   int64     `json:"spent_cents"`
	LimitCents   int64     `json:"limit_cents"`
	Percentage   string    `json:"percentage"`
	Timestamp    time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(b core.BudgetWithSpending) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		BudgetID:     b.ID,
		CategoryID:   b.CategoryID,
		CategoryName: b.CategoryName,
		Month:        b.Month.MonthKey(),
		Status:       string(b.Status),
		SpentCents:   b.Spent.Cents,
		LimitCents:   b.LimitAmount.Cents,
		Percentage:   b.Percentage.StringFixed(2),
		Timestamp:    time.Now(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
