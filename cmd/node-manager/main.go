// Command node-manager runs the process that owns every tenant's
// Keyspace, dispatching textual commands and exposing the HTTP
// control surface the Router and operators use to start, stop, and
// inspect tenants.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/emberkv/emberkv/internal/config"
	"github.com/emberkv/emberkv/internal/nodemanager"
	"github.com/emberkv/emberkv/internal/telemetry"
)

func main() {
	cfg, err := config.LoadNodeManagerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := telemetry.NewNodeManagerMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg, metrics); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.NodeManagerConfig, metrics *telemetry.NodeManagerMetrics) error {
	manager := nodemanager.New(cfg.WorkerCount, cfg.RequestQueueCapacity, metrics)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Mount("/", nodemanager.NewHandler(logger, manager).Routes())
	r.Mount("/metrics", telemetry.Handler(metrics.Registry))

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return manager.Run(ctx)
	})

	g.Go(func() error {
		logger.Info("node manager listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down node manager")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
