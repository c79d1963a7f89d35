package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront-client/internal/domain"
	"storefront-client/internal/service/cart"
)

type stubSink struct {
	orders []domain.Order
	err    error
	// during runs while the order is being submitted.
	during func()
}

func (s *stubSink) Submit(_ context.Context, o domain.Order) (*domain.Order, error) {
	if s.during != nil {
		s.during()
	}
	if s.err != nil {
		return nil, s.err
	}
	s.orders = append(s.orders, o)
	return &o, nil
}

type stubIdentity struct {
	sess domain.Session
}

func (s stubIdentity) Snapshot() domain.Session { return s.sess }

func bob() stubIdentity {
	return stubIdentity{sess: domain.Session{User: &domain.User{ID: "1", Username: "bob"}, Token: "tok"}}
}

func TestSubmit_ClearsCartOnSuccess(t *testing.T) {
	sink := &stubSink{}
	svc := New(sink)
	svc.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }

	engine := cart.New()
	engine.AddItem(domain.Product{ID: "1", PriceCents: 10})
	engine.AddItem(domain.Product{ID: "1", PriceCents: 10})
	engine.AddItem(domain.Product{ID: "2", PriceCents: 5})

	order, err := svc.Submit(context.Background(), "ws-1", bob(), engine)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "ws-1", order.WorkspaceID)
	assert.Equal(t, "bob", order.Username)
	assert.Equal(t, 3, order.TotalItems)
	assert.Equal(t, int64(25), order.TotalCents)
	assert.Len(t, order.Lines, 2)
	assert.Equal(t, 2026, order.SubmittedAt.Year())
	assert.True(t, engine.Snapshot().Empty())
	assert.Len(t, sink.orders, 1)
}

func TestSubmit_FailureKeepsCart(t *testing.T) {
	sink := &stubSink{err: errors.New("db down")}
	engine := cart.New()
	engine.AddItem(domain.Product{ID: "1", PriceCents: 10})

	_, err := New(sink).Submit(context.Background(), "ws", bob(), engine)
	require.ErrorIs(t, err, domain.ErrCollaborator)
	assert.Equal(t, 1, engine.TotalItemCount())
}

func TestSubmit_Guards(t *testing.T) {
	sink := &stubSink{}
	svc := New(sink)

	_, err := svc.Submit(context.Background(), "ws", stubIdentity{}, cart.New())
	require.ErrorIs(t, err, domain.ErrNoSession)

	_, err = svc.Submit(context.Background(), "ws", bob(), cart.New())
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, sink.orders)
}

func TestSubmit_KeepsItemsAddedDuringSubmission(t *testing.T) {
	engine := cart.New()
	engine.AddItem(domain.Product{ID: "1", PriceCents: 10})
	sink := &stubSink{during: func() {
		engine.AddItem(domain.Product{ID: "2", PriceCents: 5})
		engine.AddItem(domain.Product{ID: "1", PriceCents: 10})
	}}

	order, err := New(sink).Submit(context.Background(), "ws", bob(), engine)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 1, order.TotalItems)

	left := engine.Snapshot()
	require.Len(t, left.Lines, 2)
	assert.Equal(t, "1", left.Lines[0].ProductID)
	assert.Equal(t, 1, left.Lines[0].Quantity)
	assert.Equal(t, "2", left.Lines[1].ProductID)
	assert.Equal(t, 2, left.TotalItems)
	assert.Equal(t, int64(15), left.TotalCents)
}
