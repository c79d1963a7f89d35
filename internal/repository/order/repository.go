package order

import (
	"context"

	"storefront-client/internal/domain"
)

// Repository is the checkout outbox: submitted orders wait here until a
// forwarder hands them to fulfilment.
type Repository interface {
	Submit(ctx context.Context, order domain.Order) (*domain.Order, error)
	Pending(ctx context.Context, limit int) ([]domain.Order, error)
	MarkForwarded(ctx context.Context, id string) error
}
