package httpserver

import (
	"time"

	"storefront-client/internal/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
	Busy          bool         `json:"busy"`
}

type productListResponse struct {
	Count   int              `json:"count"`
	Results []domain.Product `json:"results"`
}

func toSessionResponse(s domain.Session, busy bool) sessionResponse {
	out := sessionResponse{
		Authenticated: s.Active(),
		User:          s.User,
		Busy:          busy,
	}
	if !s.ExpiresAt.IsZero() {
		at := s.ExpiresAt
		out.ExpiresAt = &at
	}
	return out
}

func toCartResponse(c domain.Cart) domain.Cart {
	if c.Lines == nil {
		c.Lines = []domain.CartLine{}
	}
	return c
}
