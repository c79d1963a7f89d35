package order

import (
	"context"
	"sort"
	"sync"

	"storefront-client/internal/domain"
)

type memoryRepo struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	forwarded map[string]bool
}

// NewMemory keeps orders in process; used when no database is configured.
func NewMemory() Repository {
	return &memoryRepo{
		orders:    make(map[string]domain.Order),
		forwarded: make(map[string]bool),
	}
}

func (r *memoryRepo) Submit(_ context.Context, order domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; ok {
		return nil, &domain.ValidationError{Field: "id", Message: "order already submitted"}
	}
	order.Lines = append([]domain.CartLine(nil), order.Lines...)
	r.orders[order.ID] = order
	return &order, nil
}

func (r *memoryRepo) Pending(_ context.Context, limit int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for id, o := range r.orders {
		if !r.forwarded[id] {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) MarkForwarded(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok || r.forwarded[id] {
		return &domain.NotFoundError{Kind: "pending order", ID: id}
	}
	r.forwarded[id] = true
	return nil
}
