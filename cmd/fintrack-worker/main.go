package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("Ignoring .env", "error", err)
	}

	app, err := cli.Bootstrap(context.Background(), cli.Options{Component: applog.ComponentWorker, AMQP: true})
	if err != nil {
		cli.Fatal(nil, "Worker initialization failed", err)
	}
	defer app.Close()
	logger := app.Logger

	logger.Info("Starting fintrack-worker",
		"backend", app.Config.DataBackend,
		"schedule", app.Config.AlertScanSchedule,
		"amqp_enabled", app.AMQP != nil)
	if app.Config.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is private to this process; the worker will not see API writes")
	}

	var alerter worker.Alerter
	if app.AMQP != nil {
		alerter = app.AMQP
	} else {
		logger.Info("No AMQP broker - alerts are logged only and transaction events are not consumed")
	}
	// Transactions are written by another process, so spend is read
	// uncached here.
	budgets := services.NewBudgetService(app.Backend.Store, nil)
	alerts := worker.NewAlertWorker(budgets, alerter)

	scheduler, err := worker.NewScheduler(alerts, app.Config.AlertScanSchedule)
	if err != nil {
		cli.Fatal(logger.Logger, "Invalid alert scan schedule", err)
	}

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(context.Context) {
		scheduler.Stop()
	})

	if err := run(ctx, app.AMQP, alerts, scheduler); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err.Error())
		if ctx.Err() == nil {
			os.Exit(1)
		}
	}
	if ctx.Err() != nil {
		cli.WaitForShutdown(ctx, done)
	}
}

// run drives the periodic scan and, when a broker is available, the event
// consumer until ctx is cancelled or one of them fails.
func run(ctx context.Context, client *amqp.Client, alerts *worker.AlertWorker, scheduler *worker.Scheduler) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if client != nil {
		g.Go(func() error {
			err := client.ConsumeTransactionEvents(gctx, alerts.HandleTransactionEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}
