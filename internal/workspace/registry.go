package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"storefront-client/internal/domain"
	workspacerepo "storefront-client/internal/repository/workspace"
	"storefront-client/internal/service/cart"
	"storefront-client/internal/service/session"
)

// Observer is notified when the number of open workspaces changes.
type Observer interface {
	SetWorkspaces(n int)
}

// Options configure a Registry.
type Options struct {
	ClearCartOnLogout bool
	// IdleTTL evicts workspaces untouched for longer; zero keeps them forever.
	IdleTTL  time.Duration
	Logger   zerolog.Logger
	Observer Observer
}

// Registry hands out the workspace bound to a client id, loading it from the
// repository on first use and creating a fresh one for unknown ids.
type Registry struct {
	auth  session.Authenticator
	repo  workspacerepo.Repository
	opts  Options
	now   func() time.Time
	newID func() string

	mu    sync.Mutex
	items map[string]*Workspace
}

// NewRegistry creates an empty registry backed by repo.
func NewRegistry(auth session.Authenticator, repo workspacerepo.Repository, opts Options) *Registry {
	return &Registry{
		auth:  auth,
		repo:  repo,
		opts:  opts,
		now:   time.Now,
		newID: uuid.NewString,
		items: make(map[string]*Workspace),
	}
}

// Open returns the workspace for id. A blank or malformed id, or one the
// repository does not know, yields a new workspace with a fresh id; callers
// compare the returned ID with the one they sent to detect that.
func (r *Registry) Open(ctx context.Context, id string) (*Workspace, error) {
	now := r.now()
	if _, err := uuid.Parse(id); err != nil {
		id = ""
	}

	if id != "" {
		r.mu.Lock()
		ws, ok := r.items[id]
		r.mu.Unlock()
		if ok {
			ws.touch(now)
			return ws, nil
		}

		snap, err := r.repo.Load(ctx, id)
		switch {
		case err == nil:
			ws := r.build(id)
			ws.Session.Restore(snap.Session)
			ws.Cart.Restore(snap.Cart)
			ws.touch(now)
			return r.adopt(ws), nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	ws := r.build(r.newID())
	ws.touch(now)
	return r.adopt(ws), nil
}

// Persist writes the current state of ws to the repository.
func (r *Registry) Persist(ctx context.Context, ws *Workspace) error {
	now := r.now()
	ws.touch(now)
	if err := r.repo.Save(ctx, ws.Snapshot(now.UTC())); err != nil {
		r.opts.Logger.Error().Err(err).Str("workspace_id", ws.ID).Msg("persist workspace failed")
		return err
	}
	return nil
}

// Sweep evicts workspaces idle for longer than the TTL. Evicted workspaces
// that hold neither a session nor a cart are removed from the repository
// too; the rest stay persisted for a later reload.
func (r *Registry) Sweep(ctx context.Context) int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	now := r.now()

	r.mu.Lock()
	var evicted []*Workspace
	for id, ws := range r.items {
		if ws.idleSince(now) > r.opts.IdleTTL {
			evicted = append(evicted, ws)
			delete(r.items, id)
		}
	}
	n := len(r.items)
	r.mu.Unlock()

	for _, ws := range evicted {
		if ws.Session.HasActiveSession() || !ws.Cart.Snapshot().Empty() {
			continue
		}
		if err := r.repo.Delete(ctx, ws.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			r.opts.Logger.Warn().Err(err).Str("workspace_id", ws.ID).Msg("delete idle workspace failed")
		}
	}
	if len(evicted) > 0 {
		r.opts.Logger.Debug().Int("evicted", len(evicted)).Int("open", n).Msg("workspace sweep")
		r.observe(n)
	}
	return len(evicted)
}

// Flush persists every open workspace; used on shutdown.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.Lock()
	open := make([]*Workspace, 0, len(r.items))
	for _, ws := range r.items {
		open = append(open, ws)
	}
	r.mu.Unlock()

	var errs []error
	for _, ws := range open {
		if err := r.Persist(ctx, ws); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports the number of workspaces held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Registry) build(id string) *Workspace {
	ws := &Workspace{
		ID:      id,
		Session: session.New(r.auth),
		Cart:    cart.New(),
	}
	if r.opts.ClearCartOnLogout {
		ws.Session.OnTeardown(func(session.TeardownReason) {
			ws.Cart.Clear()
		})
	}
	return ws
}

// adopt registers ws unless a concurrent Open got there first, in which case
// the earlier workspace wins.
func (r *Registry) adopt(ws *Workspace) *Workspace {
	r.mu.Lock()
	if existing, ok := r.items[ws.ID]; ok {
		r.mu.Unlock()
		return existing
	}
	r.items[ws.ID] = ws
	n := len(r.items)
	r.mu.Unlock()
	r.observe(n)
	return ws
}

func (r *Registry) observe(n int) {
	if r.opts.Observer != nil {
		r.opts.Observer.SetWorkspaces(n)
	}
}
