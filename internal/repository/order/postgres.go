package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"storefront-client/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "order").Logger()}
}

func (r *postgresRepo) Submit(ctx context.Context, order domain.Order) (*domain.Order, error) {
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return nil, fmt.Errorf("encode lines: %w", err)
	}
	const q = `
INSERT INTO checkout_orders (id, workspace_id, user_id, username, lines, total_items, total_cents, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING submitted_at
`
	if err := r.pool.QueryRow(ctx, q,
		order.ID,
		order.WorkspaceID,
		order.UserID,
		order.Username,
		lines,
		order.TotalItems,
		order.TotalCents,
		order.SubmittedAt,
	).Scan(&order.SubmittedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, &domain.ValidationError{Field: "id", Message: "order already submitted"}
		}
		r.logger.Error().Err(err).Str("order_id", order.ID).Msg("insert order failed")
		return nil, err
	}
	return &order, nil
}

func (r *postgresRepo) Pending(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id::text, workspace_id, user_id, username, lines, total_items, total_cents, submitted_at
FROM checkout_orders
WHERE forwarded_at IS NULL
ORDER BY submitted_at ASC
LIMIT $1
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var (
			o     domain.Order
			lines []byte
		)
		if err := rows.Scan(&o.ID, &o.WorkspaceID, &o.UserID, &o.Username, &lines, &o.TotalItems, &o.TotalCents, &o.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(lines, &o.Lines); err != nil {
			return nil, fmt.Errorf("decode lines of order %s: %w", o.ID, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) MarkForwarded(ctx context.Context, id string) error {
	var forwardedAt time.Time
	err := r.pool.QueryRow(ctx, `
UPDATE checkout_orders SET forwarded_at = now()
WHERE id = $1 AND forwarded_at IS NULL
RETURNING forwarded_at
`, id).Scan(&forwardedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotFoundError{Kind: "pending order", ID: id}
	}
	return err
}
