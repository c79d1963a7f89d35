package workspace

import (
	"context"

	"storefront-client/internal/domain"
)

// Repository persists client workspaces so a reload or restart of the shell
// re-hydrates the session and the cart.
type Repository interface {
	Load(ctx context.Context, id string) (*domain.WorkspaceSnapshot, error)
	Save(ctx context.Context, snap domain.WorkspaceSnapshot) error
	Delete(ctx context.Context, id string) error
}
