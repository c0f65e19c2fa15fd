package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// EventPublisher announces committed transaction mutations.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// TransactionService orchestrates transaction writes across the store, the
// spend cache and AMQP.
type TransactionService struct {
	store     store.RecordStore
	publisher EventPublisher
	spend     *cache.SpendCache
}

// NewTransactionService wires the service. publisher and spend may be nil.
func NewTransactionService(st store.RecordStore, publisher EventPublisher, spend *cache.SpendCache) *TransactionService {
	return &TransactionService{store: st, publisher: publisher, spend: spend}
}

func (s *TransactionService) List(ctx context.Context, period *core.Period) ([]core.TransactionWithCategory, error) {
	txs, err := s.store.ListTransactions(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	slog.DebugContext(ctx, "Transactions listed", applog.FieldOperation, applog.OpList, "count", len(txs))
	return txs, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.TransactionWithCategory, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.TransactionWithCategory{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// Create saves the transaction locally and publishes a created event.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.spend.InvalidateMonth(saved.Date)
	logTransaction(ctx, "Transaction created", applog.OpCreate, saved)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionCreated, saved, nil))
	return saved, nil
}

// Update applies patch to transaction id. The patched transaction must pass
// full validation.
func (s *TransactionService) Update(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.IsEmpty() {
		return core.Transaction{}, core.NewValidationError("", "no fields to update")
	}
	prev, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	next := patch.Apply(prev.Transaction)
	if err := next.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, next); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, id, patch)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.spend.InvalidateMonth(prev.Date)
	s.spend.InvalidateMonth(updated.Date)
	logTransaction(ctx, "Transaction updated", applog.OpUpdate, updated)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionUpdated, updated, &prev.Transaction))
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	prev, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.spend.InvalidateMonth(prev.Date)
	logTransaction(ctx, "Transaction deleted", applog.OpDelete, prev.Transaction)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionDeleted, prev.Transaction, nil))
	return nil
}

// checkCategory requires the category to exist. A transaction may carry a
// type other than its category's; that is logged, not rejected.
func (s *TransactionService) checkCategory(ctx context.Context, tx core.Transaction) error {
	cat, err := s.store.GetCategory(ctx, tx.CategoryID)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if cat.Type != tx.Type {
		slog.WarnContext(ctx, "Transaction type differs from its category",
			applog.FieldCategoryID, cat.ID,
			"category_type", cat.Type,
			applog.FieldTxType, tx.Type)
	}
	return nil
}

func logTransaction(ctx context.Context, msg, op string, tx core.Transaction) {
	fields := applog.NewFields().
		WithOperation(op).
		WithTransaction(tx.ID, string(tx.Type), tx.Amount.Cents, tx.CategoryID)
	slog.InfoContext(ctx, msg, append(fields.ToSlice(), applog.FieldMonth, tx.Date.MonthKey())...)
}

func (s *TransactionService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping transaction event",
			"action", ev.Action, applog.FieldTransactionID, ev.TransactionID)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		// Don't fail the request - the transaction is saved locally
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", ev.Action,
			applog.FieldTransactionID, ev.TransactionID,
			applog.FieldError, err)
	}
}
