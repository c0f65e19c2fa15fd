package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().String("port", "", "listen port (default 8081)")
	_ = viper.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := cli.Bootstrap(ctx, cli.Options{Component: applog.ComponentHTTP, AMQP: true})
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Transactions: app.Transactions,
		Categories:   app.Categories,
		Budgets:      app.Budgets,
		Reports:      app.Reports,
		Ready:        app.Backend.Store.Ping,
	}, apphttp.Options{
		AccessEnabled:      cfg.AccessEnabled,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             app.Logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"access_enabled", cfg.AccessEnabled,
			"amqp_enabled", app.AMQP != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Server shutdown error", applog.FieldError, err.Error())
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	app.Logger.Info("Server stopped gracefully")
	return nil
}
