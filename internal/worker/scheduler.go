package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// DefaultScanSchedule runs the budget scan every fifteen minutes.
const DefaultScanSchedule = "@every 15m"

// Scheduler periodically scans the current month's budgets.
type Scheduler struct {
	worker *AlertWorker
	spec   string
	today  func() core.Date

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

// NewScheduler validates spec, a robfig/cron expression with seconds or a
// descriptor such as "@hourly" or "@every 10m".
func NewScheduler(worker *AlertWorker, spec string) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultScanSchedule
	}
	if _, err := cron.Parse(spec); err != nil {
		return nil, fmt.Errorf("parse alert scan schedule %q: %w", spec, err)
	}
	return &Scheduler{worker: worker, spec: spec, today: core.Today}, nil
}

// Start scans once immediately and then on every tick. Returns an error if
// already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	c := cron.New()
	if err := c.AddFunc(s.spec, func() { s.scan(ctx) }); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("schedule alert scan: %w", err)
	}
	s.cron = c
	s.running = true
	s.mu.Unlock()

	s.scan(ctx)
	c.Start()

	slog.InfoContext(ctx, "Alert scheduler started", "schedule", s.spec)
	return nil
}

// Stop halts future ticks. A scan already in flight finishes on its own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	slog.Info("Alert scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) scan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	month := s.today().MonthStart()
	sent, err := s.worker.ScanMonth(ctx, month)
	if err != nil {
		slog.ErrorContext(ctx, "Budget scan failed",
			applog.FieldOperation, applog.OpScan, applog.FieldMonth, month.MonthKey(), applog.FieldError, err)
		return
	}
	slog.DebugContext(ctx, "Budget scan completed",
		applog.FieldOperation, applog.OpScan, applog.FieldMonth, month.MonthKey(), "alerts", sent)
}
