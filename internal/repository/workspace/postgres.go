package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"storefront-client/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "workspace").Logger()}
}

func (r *postgresRepo) Load(ctx context.Context, id string) (*domain.WorkspaceSnapshot, error) {
	const q = `
SELECT id, user_profile, token, refresh_token, expires_at, updated_at
FROM client_workspaces
WHERE id = $1
`
	var (
		snap      domain.WorkspaceSnapshot
		profile   []byte
		expiresAt *time.Time
	)
	if err := r.pool.QueryRow(ctx, q, id).Scan(
		&snap.ID,
		&profile,
		&snap.Session.Token,
		&snap.Session.RefreshToken,
		&expiresAt,
		&snap.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "workspace", ID: id}
		}
		return nil, err
	}
	if len(profile) > 0 {
		var user domain.User
		if err := json.Unmarshal(profile, &user); err != nil {
			return nil, fmt.Errorf("decode user of workspace %s: %w", id, err)
		}
		snap.Session.User = &user
	}
	if expiresAt != nil {
		snap.Session.ExpiresAt = *expiresAt
	}

	lines, err := r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	snap.Cart.Lines = lines
	for _, l := range lines {
		snap.Cart.TotalItems += l.Quantity
		snap.Cart.TotalCents += l.TotalCents
	}
	return &snap, nil
}

func (r *postgresRepo) loadLines(ctx context.Context, id string) ([]domain.CartLine, error) {
	rows, err := r.pool.Query(ctx, `
SELECT product_id, name, image_url, quantity, unit_price_cents
FROM workspace_cart_lines
WHERE workspace_id = $1
ORDER BY position ASC
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.ImageURL, &l.Quantity, &l.UnitPriceCents); err != nil {
			return nil, err
		}
		l.TotalCents = l.UnitPriceCents * int64(l.Quantity)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Save replaces the stored workspace with snap in a single transaction.
func (r *postgresRepo) Save(ctx context.Context, snap domain.WorkspaceSnapshot) error {
	var profile []byte
	if snap.Session.User != nil {
		b, err := json.Marshal(snap.Session.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		profile = b
	}
	var expiresAt *time.Time
	if !snap.Session.ExpiresAt.IsZero() {
		expiresAt = &snap.Session.ExpiresAt
	}
	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO client_workspaces (id, user_profile, token, refresh_token, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET user_profile = EXCLUDED.user_profile,
    token = EXCLUDED.token,
    refresh_token = EXCLUDED.refresh_token,
    expires_at = EXCLUDED.expires_at,
    updated_at = EXCLUDED.updated_at
`, snap.ID, profile, snap.Session.Token, snap.Session.RefreshToken, expiresAt, updatedAt); err != nil {
		r.logger.Error().Err(err).Str("workspace_id", snap.ID).Msg("upsert workspace failed")
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM workspace_cart_lines WHERE workspace_id = $1`, snap.ID); err != nil {
		return err
	}
	if len(snap.Cart.Lines) > 0 {
		batch := &pgx.Batch{}
		for i, l := range snap.Cart.Lines {
			batch.Queue(`
INSERT INTO workspace_cart_lines (workspace_id, position, product_id, name, image_url, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, snap.ID, i, l.ProductID, l.Name, l.ImageURL, l.Quantity, l.UnitPriceCents)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert cart lines: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM client_workspaces WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "workspace", ID: id}
	}
	return nil
}
