package domain

import "time"

// Order is the cart snapshot handed to the checkout collaborator.
type Order struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"-"`
	UserID      string     `json:"userId"`
	Username    string     `json:"username"`
	Lines       []CartLine `json:"lineItems"`
	TotalItems  int        `json:"totalItemCount"`
	TotalCents  int64      `json:"totalPriceCents"`
	SubmittedAt time.Time  `json:"submittedAt"`
}
