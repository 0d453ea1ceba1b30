// Command router terminates client connections — either line-mode
// TCP or header-mode HTTP, per configuration — authenticates them
// against the control plane, and proxies RESP traffic to the right
// Storage Node.
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
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/emberkv/emberkv/internal/config"
	"github.com/emberkv/emberkv/internal/router"
	"github.com/emberkv/emberkv/internal/telemetry"
)

func main() {
	cfg, err := config.LoadRouterConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := telemetry.NewRouterMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg, metrics); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.RouterConfig, metrics *telemetry.RouterMetrics) error {
	cacheTTL, err := time.ParseDuration(cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("parsing ROUTER_CACHE_TTL: %w", err)
	}
	negativeTTL, err := time.ParseDuration(cfg.NegativeTTL)
	if err != nil {
		return fmt.Errorf("parsing ROUTER_NEGATIVE_CACHE_TTL: %w", err)
	}

	rt := router.New(logger, metrics, cfg.ControlPlaneURL, cfg.BackendHost, cfg.NodeManagerURL, router.Options{
		CacheSize:       cfg.CacheSize,
		CacheTTL:        cacheTTL,
		NegativeTTL:     negativeTTL,
		PoolSizePerPort: cfg.PoolSizePerPort,
		ForwardWorkers:  cfg.ForwardWorkers,
		ForwardQueueCap: 256,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.Run(ctx)
	})

	switch cfg.Mode {
	case "header":
		g.Go(func() error { return serveHeaderMode(ctx, logger, cfg, metrics, rt) })
	default:
		g.Go(func() error {
			logger.Info("router listening (line-mode)", "addr", cfg.ListenAddr())
			return rt.ListenAndServeLine(ctx, cfg.ListenAddr())
		})
	}

	return g.Wait()
}

func serveHeaderMode(ctx context.Context, logger *slog.Logger, cfg *config.RouterConfig, metrics *telemetry.RouterMetrics, rt *router.Router) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"POST"}}))
	r.Mount("/", router.NewHTTPHandler(logger, rt).Routes())
	r.Mount("/metrics", telemetry.Handler(metrics.Registry))

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("router listening (header-mode)", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
