package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"storefront-client/internal/config"
	"storefront-client/internal/db"
	"storefront-client/internal/logging"
	orderrepo "storefront-client/internal/repository/order"
)

// orders inspects the checkout outbox: it prints pending orders as JSON
// lines and acknowledges forwarded ones.
func main() {
	var (
		limit int
		ack   string
	)
	flag.IntVar(&limit, "limit", 50, "maximum number of pending orders to print")
	flag.StringVar(&ack, "ack", "", "mark the order with this id as forwarded")
	flag.Parse()

	cfg := config.FromEnv()
	logger := logging.New(logging.Options{Service: "orders", Env: cfg.Env, Level: cfg.LogLevel, Format: cfg.LogFormat})
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

	repo := orderrepo.NewPostgres(pool, logger)
	if ack != "" {
		if err := repo.MarkForwarded(ctx, ack); err != nil {
			logger.Fatal().Err(err).Str("order_id", ack).Msg("acknowledge order")
		}
		logger.Info().Str("order_id", ack).Msg("order marked forwarded")
		return
	}

	pending, err := repo.Pending(ctx, limit)
	if err != nil {
		logger.Fatal().Err(err).Msg("list pending orders")
	}
	enc := json.NewEncoder(os.Stdout)
	for _, o := range pending {
		if err := enc.Encode(o); err != nil {
			logger.Fatal().Err(err).Msg("write order")
		}
	}
	logger.Info().Int("pending", len(pending)).Msg("done")
}
