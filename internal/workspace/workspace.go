package workspace

import (
	"sync"
	"time"

	"storefront-client/internal/domain"
	"storefront-client/internal/service/cart"
	"storefront-client/internal/service/session"
)

// Workspace is one client's state: its session and its cart. The two stores
// never reference each other; the registry wires the clear-on-logout policy
// between them.
type Workspace struct {
	ID      string
	Session *session.Store
	Cart    *cart.Engine

	mu       sync.Mutex
	lastSeen time.Time
}

// Snapshot returns the persisted form of the workspace.
func (w *Workspace) Snapshot(now time.Time) domain.WorkspaceSnapshot {
	return domain.WorkspaceSnapshot{
		ID:        w.ID,
		Session:   w.Session.Snapshot(),
		Cart:      w.Cart.Snapshot(),
		UpdatedAt: now,
	}
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastSeen)
}
