package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// BudgetEvaluator computes the spending view of a month's budgets.
type BudgetEvaluator interface {
	ListBudgetsWithSpending(ctx context.Context, month core.Date) ([]core.BudgetWithSpending, error)
}

// Alerter delivers a budget alert. *amqp.Client implements it.
type Alerter interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// AlertWorker turns budget status changes into alerts. It remembers the last
// status it alerted on per budget so a budget that stays in warning is not
// re-announced on every scan.
type AlertWorker struct {
	budgets BudgetEvaluator
	alerter Alerter

	mu sync.Mutex
	// month key -> budget id -> last alerted status
	last map[string]map[int64]core.BudgetStatus
}

// NewAlertWorker creates the worker. A nil alerter only logs.
func NewAlertWorker(budgets BudgetEvaluator, alerter Alerter) *AlertWorker {
	return &AlertWorker{
		budgets: budgets,
		alerter: alerter,
		last:    make(map[string]map[int64]core.BudgetStatus),
	}
}

// HandleTransactionEvent rescans every month the event touched.
func (w *AlertWorker) HandleTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", ev.Action,
		applog.FieldTransactionID, ev.TransactionID,
		applog.FieldMonth, ev.Month)

	months, err := ev.Months()
	if err != nil {
		return fmt.Errorf("event months: %w", err)
	}
	for _, m := range months {
		if _, err := w.ScanMonth(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// ScanMonth evaluates the budgets of month and alerts on those whose status
// moved into warning or over since the previous scan. It returns the number
// of alerts sent.
func (w *AlertWorker) ScanMonth(ctx context.Context, month core.Date) (int, error) {
	month = month.MonthStart()
	budgets, err := w.budgets.ListBudgetsWithSpending(ctx, month)
	if err != nil {
		return 0, fmt.Errorf("evaluate budgets for %s: %w", month.MonthKey(), err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	key := month.MonthKey()
	prev := w.last[key]
	next := make(map[int64]core.BudgetStatus, len(budgets))

	sent := 0
	var errs []error
	for _, b := range budgets {
		if !b.IsAlert() {
			// Forgotten, so a later re-crossing alerts again.
			continue
		}
		if prev[b.ID] == b.Status {
			next[b.ID] = b.Status
			continue
		}
		if err := w.notify(ctx, b); err != nil {
			errs = append(errs, err)
			// Not recorded: the next scan retries.
			if old, ok := prev[b.ID]; ok {
				next[b.ID] = old
			}
			continue
		}
		next[b.ID] = b.Status
		sent++
	}

	if len(next) == 0 {
		delete(w.last, key)
	} else {
		w.last[key] = next
	}
	return sent, errors.Join(errs...)
}

func (w *AlertWorker) notify(ctx context.Context, b core.BudgetWithSpending) error {
	slog.WarnContext(ctx, "Budget threshold crossed",
		applog.FieldBudgetID, b.ID,
		"category", b.CategoryName,
		applog.FieldMonth, b.Month.MonthKey(),
		"status", b.Status,
		"spent", b.Spent.String(),
		"limit", b.LimitAmount.String(),
		"percentage", b.Percentage.StringFixed(2))

	if w.alerter == nil {
		return nil
	}
	if err := w.alerter.PublishBudgetAlert(ctx, amqp.NewBudgetAlertMessage(b)); err != nil {
		return fmt.Errorf("publish alert for budget %d: %w", b.ID, err)
	}
	return nil
}
