package catalog

import (
	"context"
	"strings"

	"storefront-client/internal/domain"
)

// Source is the Catalog collaborator.
type Source interface {
	ListProducts(ctx context.Context, token string) ([]domain.Product, error)
}

// Credential is the part of a session the catalog needs: the token to send
// and the credential-invalid transition to trigger on rejection.
type Credential interface {
	Token() string
	Invalidate()
}

type Service struct {
	source Source
}

func New(source Source) *Service {
	return &Service{source: source}
}

// List fetches the catalog with the session's credential. A rejected
// credential ends the session before the error is returned.
func (s *Service) List(ctx context.Context, cred Credential) ([]domain.Product, error) {
	products, err := s.source.ListProducts(ctx, cred.Token())
	if err != nil {
		if domain.IsUnauthorized(err) {
			cred.Invalidate()
		}
		return nil, err
	}
	return products, nil
}

// Get returns the product with the given ID from a fresh listing.
func (s *Service) Get(ctx context.Context, cred Credential, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, &domain.ValidationError{Field: "productId", Message: "product id is required"}
	}
	products, err := s.List(ctx, cred)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, &domain.NotFoundError{Kind: "product", ID: id}
}
