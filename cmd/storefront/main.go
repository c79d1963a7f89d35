package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"storefront-client/internal/backend"
	"storefront-client/internal/catalogfile"
	"storefront-client/internal/config"
	"storefront-client/internal/db"
	"storefront-client/internal/httpserver"
	"storefront-client/internal/logging"
	"storefront-client/internal/metrics"
	"storefront-client/internal/migrate"
	orderrepo "storefront-client/internal/repository/order"
	workspacerepo "storefront-client/internal/repository/workspace"
	catalogsvc "storefront-client/internal/service/catalog"
	checkoutsvc "storefront-client/internal/service/checkout"
	"storefront-client/internal/workspace"
)

func main() {
	envFile := flag.String("env-file", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(logging.Options{
		Service: "storefront",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := backend.New(backend.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init backend client")
	}

	var source catalogsvc.Source = client
	if cfg.CatalogCSV != "" {
		source = catalogfile.New(cfg.CatalogCSV)
		logger.Info().Str("path", cfg.CatalogCSV).Msg("serving catalog from csv")
	}

	workspaces := workspacerepo.NewMemory()
	orders := orderrepo.NewMemory()
	var ready httpserver.Pinger
	if cfg.DBConnString != "" {
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to db")
		}
		defer pool.Close()
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		workspaces = workspacerepo.NewPostgres(pool, logger)
		orders = orderrepo.NewPostgres(pool, logger)
		ready = pool
	} else {
		logger.Warn().Msg("DB_DSN not set, workspaces and orders are kept in memory")
	}

	m := metrics.New()
	registry := workspace.NewRegistry(client, workspaces, workspace.Options{
		ClearCartOnLogout: cfg.ClearCartOnLogout,
		IdleTTL:           cfg.WorkspaceIdleTTL,
		Logger:            logger,
		Observer:          m,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Workspaces: registry,
		Catalog:    catalogsvc.New(source),
		Checkout:   checkoutsvc.New(orders),
		Metrics:    m,
		Ready:      ready,
	}, httpserver.Options{
		CORSOrigins:       cfg.CORSOrigins,
		CookieSecure:      cfg.CookieSecure,
		AuthRatePerSecond: cfg.AuthRatePerSecond,
		AuthRateBurst:     cfg.AuthRateBurst,
		RefreshWithin:     time.Minute,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweepLoop(gctx, registry, cfg.WorkspaceIdleTTL)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
		if err := registry.Flush(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("flush workspaces failed")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

func sweepLoop(ctx context.Context, registry *workspace.Registry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			registry.Sweep(ctx)
		}
	}
}
