package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"storefront-client/internal/domain"
)

// OrderSink receives submitted orders.
type OrderSink interface {
	Submit(ctx context.Context, order domain.Order) (*domain.Order, error)
}

// Cart is the part of the cart engine checkout reads and settles.
type Cart interface {
	Snapshot() domain.Cart
	Deduct(lines []domain.CartLine) domain.Cart
}

// Identity exposes the session checkout attributes the order to.
type Identity interface {
	Snapshot() domain.Session
}

// Service turns the current cart into an order.
type Service struct {
	sink OrderSink
	now  func() time.Time
}

// New creates a checkout service submitting to sink.
func New(sink OrderSink) *Service {
	return &Service{sink: sink, now: time.Now}
}

// Submit hands the current cart to the order sink and, once the sink accepted
// it, removes exactly the submitted quantities from the cart. Items added while
// the submission was in flight stay in the cart. A failed submission leaves
// the cart as it was.
func (s *Service) Submit(ctx context.Context, workspaceID string, identity Identity, cart Cart) (*domain.Order, error) {
	sess := identity.Snapshot()
	if !sess.Active() {
		return nil, domain.ErrNoSession
	}
	snap := cart.Snapshot()
	if snap.Empty() {
		return nil, &domain.ValidationError{Field: "cart", Message: "cart is empty"}
	}

	order := domain.Order{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		UserID:      sess.User.ID,
		Username:    sess.User.Username,
		Lines:       snap.Lines,
		TotalItems:  snap.TotalItems,
		TotalCents:  snap.TotalCents,
		SubmittedAt: s.now().UTC(),
	}
	submitted, err := s.sink.Submit(ctx, order)
	if err != nil {
		if errors.Is(err, domain.ErrCollaborator) {
			return nil, err
		}
		return nil, &domain.CollaboratorError{Collaborator: "checkout", Op: "submit", Err: err}
	}
	cart.Deduct(snap.Lines)
	return submitted, nil
}
