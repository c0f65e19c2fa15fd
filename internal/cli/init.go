// Package cli provides common CLI initialization utilities.
// This package consolidates the start-up steps shared by cmd/fintrack and
// cmd/fintrack-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

const cacheCleanupInterval = time.Minute

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger initializes structured logging from cfg and installs it as the
// default logger.
func SetupLogger(cfg *config.Config, component string) (*applog.Logger, error) {
	return applog.Setup(cfg.LogLevel, cfg.LogFormat, component)
}

// Options selects the optional parts of the bootstrap.
type Options struct {
	// Component names the logger, e.g. applog.ComponentHTTP.
	Component string
	// AMQP dials the broker when one is configured. A dial failure is
	// logged and the app continues without events.
	AMQP bool
}

// App holds everything a command needs after start-up.
type App struct {
	Config  *config.Config
	Logger  *applog.Logger
	Backend *backend.BackendResult
	Spend   *cache.SpendCache
	Caches  *cache.Manager
	// AMQP is nil when no broker is configured or reachable.
	AMQP *amqp.Client

	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Reports      *services.ReportService
}

// Bootstrap loads config, sets up logging and opens the configured store
// with its services.
func Bootstrap(ctx context.Context, opts Options) (*App, error) {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger, err := SetupLogger(cfg, opts.Component)
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Backend: res,
		Spend:   cache.NewSpendCache(cfg.SpendCacheSize, cfg.SpendCacheTTL),
		Caches:  cache.NewManager(logger.Logger),
	}
	if app.Spend != nil {
		app.Caches.Register(app.Spend)
		app.Caches.StartCleanup(cacheCleanupInterval)
	}

	if opts.AMQP && cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventsQueue, cfg.AMQPAlertsQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err.Error())
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"events_queue", cfg.AMQPEventsQueue,
				"alerts_queue", cfg.AMQPAlertsQueue)
			app.AMQP = client
		}
	}

	var publisher services.EventPublisher
	if app.AMQP != nil {
		publisher = app.AMQP
	}
	app.Transactions = services.NewTransactionService(res.Store, publisher, app.Spend)
	app.Categories = services.NewCategoryService(res.Store)
	app.Budgets = services.NewBudgetService(res.Store, app.Spend)
	app.Reports = services.NewReportService(res.Store)

	logger.Debug("Application bootstrapped",
		applog.FieldOperation, applog.OpStartup,
		"backend", bcfg.Type.String(),
		"spend_cache", app.Spend != nil,
		"amqp", app.AMQP != nil)
	return app, nil
}

// Close releases the broker connection, cache cleanup and store.
func (a *App) Close() error {
	var errs []error
	if a.AMQP != nil {
		errs = append(errs, a.AMQP.Close())
	}
	if a.Caches != nil {
		a.Caches.Stop()
	}
	if a.Backend != nil {
		errs = append(errs, a.Backend.Close())
	}
	return errors.Join(errs...)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on SIGINT or SIGTERM, and a
// channel that is closed once cleanup has run or timed out.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		sig := <-sigChan
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown, "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

// Fatal logs err and exits with status 1.
func Fatal(logger *slog.Logger, msg string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error(msg, "error", fmt.Sprint(err))
	os.Exit(1)
}
