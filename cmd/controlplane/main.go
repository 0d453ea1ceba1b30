// Command controlplane owns tenant and API-key records and answers
// the Router's verification calls. It is the one process with
// database access; the Router and Node Manager never talk to
// Postgres or Redis directly.
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
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/emberkv/emberkv/internal/config"
	"github.com/emberkv/emberkv/internal/controlplane/apikey"
	"github.com/emberkv/emberkv/internal/controlplane/cache"
	"github.com/emberkv/emberkv/internal/controlplane/tenant"
	"github.com/emberkv/emberkv/internal/telemetry"
)

func main() {
	cfg, err := config.LoadControlPlaneConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.ControlPlaneConfig) error {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()

	redisCache, err := cache.New(cfg.RedisURL, 5*time.Minute)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisCache.Close()

	metrics := telemetry.NewControlPlaneMetrics()

	tenantStore := tenant.NewStore(pool)
	tenantService, err := tenant.NewService(tenantStore, cfg.Host, cfg.TenantPortRangeLow, cfg.TenantPortRangeHigh, metrics)
	if err != nil {
		return fmt.Errorf("building tenant service: %w", err)
	}
	tenantHandler := tenant.NewHandler(logger, tenantService)

	apiKeyStore := apikey.NewStore(pool)
	apiKeyService := apikey.NewService(apiKeyStore, redisCache, metrics)
	apiKeyHandler := apikey.NewHandler(logger, apiKeyService)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api", func(api chi.Router) {
		api.Mount("/tenants", tenantHandler.Routes())
		api.Mount("/", apiKeyHandler.Routes())
	})
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
		logger.Info("control plane listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down control plane")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
