package domain

// Cart is an immutable snapshot of a client's cart. Lines are unique by
// ProductID and keep insertion order.
type Cart struct {
	Lines      []CartLine `json:"lineItems"`
	TotalItems int        `json:"totalItemCount"`
	TotalCents int64      `json:"totalPriceCents"`
}

// CartLine references a product by ID. UnitPriceCents is frozen when the
// product is first added; Name and ImageURL are display data captured at the
// same moment and may go stale.
type CartLine struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	TotalCents     int64  `json:"totalCents"`
}

// Empty reports whether the cart has no line items.
func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}
