package main

import (
	"context"
	"flag"
	"os"

	"storefront-client/internal/config"
	"storefront-client/internal/db"
	"storefront-client/internal/logging"
	"storefront-client/internal/migrate"
)

func main() {
	down := flag.Int("down", 0, "roll back this many versions instead of applying")
	flag.Parse()

	cfg := config.FromEnv()
	logger := logging.New(logging.Options{Service: "migrate", Env: cfg.Env, Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.DBConnString == "" {
		logger.Error().Msg("DB_DSN is required")
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if *down > 0 {
		if err := migrate.Rollback(ctx, pool, *down); err != nil {
			logger.Fatal().Err(err).Msg("rollback migrations")
		}
	} else if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("read schema version")
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations done")
}
