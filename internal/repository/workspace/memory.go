package workspace

import (
	"context"
	"sync"

	"storefront-client/internal/domain"
)

type memoryRepo struct {
	mu    sync.RWMutex
	items map[string]domain.WorkspaceSnapshot
}

// NewMemory stores workspaces in process memory.
func NewMemory() Repository {
	return &memoryRepo{items: make(map[string]domain.WorkspaceSnapshot)}
}

func (r *memoryRepo) Load(_ context.Context, id string) (*domain.WorkspaceSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.items[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "workspace", ID: id}
	}
	out := copySnapshot(snap)
	return &out, nil
}

func (r *memoryRepo) Save(_ context.Context, snap domain.WorkspaceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[snap.ID] = copySnapshot(snap)
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return &domain.NotFoundError{Kind: "workspace", ID: id}
	}
	delete(r.items, id)
	return nil
}

func copySnapshot(s domain.WorkspaceSnapshot) domain.WorkspaceSnapshot {
	s.Session = s.Session.Clone()
	s.Cart.Lines = append([]domain.CartLine(nil), s.Cart.Lines...)
	return s
}
