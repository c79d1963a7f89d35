package cart

import (
	"strings"
	"sync"

	"storefront-client/internal/domain"
)

// Engine owns a single cart. All operations are synchronous and either fully
// apply or leave the cart untouched. Readers only ever receive snapshots.
type Engine struct {
	mu    sync.Mutex
	lines []line
}

type line struct {
	productID string
	name      string
	imageURL  string
	quantity  int
	unitPrice int64
}

// New returns an empty cart engine.
func New() *Engine {
	return &Engine{}
}

// AddItem merges product into the cart: an existing line gains one unit,
// otherwise a new line with quantity 1 is appended at the product's current
// price. The price is frozen on the line from then on.
func (e *Engine) AddItem(product domain.Product) domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()

	if idx := e.indexOf(product.ID); idx >= 0 {
		e.lines[idx].quantity++
		return e.snapshotLocked()
	}
	e.lines = append(e.lines, line{
		productID: product.ID,
		name:      product.Name,
		imageURL:  product.ImageURL,
		quantity:  1,
		unitPrice: product.PriceCents,
	})
	return e.snapshotLocked()
}

// RemoveItem deletes the line for productID. Unknown IDs are a no-op.
func (e *Engine) RemoveItem(productID string) domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.removeLocked(productID)
	return e.snapshotLocked()
}

// SetQuantity sets the quantity of an existing line. Quantities below 1
// remove the line. It never creates lines.
func (e *Engine) SetQuantity(productID string, quantity int) (domain.Cart, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.setLocked(productID, quantity)
}

// IncrementQuantity adds one unit to an existing line.
func (e *Engine) IncrementQuantity(productID string) (domain.Cart, error) {
	return e.adjust(productID, 1)
}

// DecrementQuantity removes one unit from an existing line, evicting it when
// the quantity would drop below 1.
func (e *Engine) DecrementQuantity(productID string) (domain.Cart, error) {
	return e.adjust(productID, -1)
}

// Clear empties the cart.
func (e *Engine) Clear() domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lines = nil
	return e.snapshotLocked()
}

// TotalItemCount is the sum of all line quantities.
func (e *Engine) TotalItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := 0
	for _, l := range e.lines {
		total += l.quantity
	}
	return total
}

// TotalPrice is the sum of quantity * frozen unit price over all lines.
func (e *Engine) TotalPrice() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var total int64
	for _, l := range e.lines {
		total += l.unitPrice * int64(l.quantity)
	}
	return total
}

// Snapshot returns the current cart.
func (e *Engine) Snapshot() domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.snapshotLocked()
}

// Deduct subtracts the quantities of lines from the matching cart lines and
// drops lines that fall below 1. Lines absent from the cart are skipped, so
// items added after lines was captured survive.
func (e *Engine) Deduct(lines []domain.CartLine) domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, l := range lines {
		idx := e.indexOf(l.ProductID)
		if idx < 0 {
			continue
		}
		if remaining := e.lines[idx].quantity - l.Quantity; remaining < 1 {
			e.removeLocked(l.ProductID)
		} else {
			e.lines[idx].quantity = remaining
		}
	}
	return e.snapshotLocked()
}

// Lines returns a copy of the line items in insertion order.
func (e *Engine) Lines() []domain.CartLine {
	return e.Snapshot().Lines
}

// Restore replaces the cart contents with a previously persisted snapshot.
// Duplicate product lines are merged and lines with a quantity below 1 or no
// product ID are dropped, so a stored cart can never break the invariants.
func (e *Engine) Restore(c domain.Cart) domain.Cart {
	restored := make([]line, 0, len(c.Lines))
	index := make(map[string]int, len(c.Lines))
	for _, cl := range c.Lines {
		id := strings.TrimSpace(cl.ProductID)
		if id == "" || cl.Quantity < 1 {
			continue
		}
		if i, ok := index[id]; ok {
			restored[i].quantity += cl.Quantity
			continue
		}
		index[id] = len(restored)
		restored = append(restored, line{
			productID: id,
			name:      cl.Name,
			imageURL:  cl.ImageURL,
			quantity:  cl.Quantity,
			unitPrice: cl.UnitPriceCents,
		})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines = restored
	return e.snapshotLocked()
}

func (e *Engine) adjust(productID string, delta int) (domain.Cart, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOf(productID)
	if idx < 0 {
		return domain.Cart{}, &domain.NotFoundError{Kind: "line item", ID: productID}
	}
	return e.setLocked(productID, e.lines[idx].quantity+delta)
}

func (e *Engine) setLocked(productID string, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		e.removeLocked(productID)
		return e.snapshotLocked(), nil
	}
	idx := e.indexOf(productID)
	if idx < 0 {
		return domain.Cart{}, &domain.NotFoundError{Kind: "line item", ID: productID}
	}
	e.lines[idx].quantity = quantity
	return e.snapshotLocked(), nil
}

func (e *Engine) removeLocked(productID string) {
	idx := e.indexOf(productID)
	if idx < 0 {
		return
	}
	e.lines = append(e.lines[:idx:idx], e.lines[idx+1:]...)
}

func (e *Engine) indexOf(productID string) int {
	for i, l := range e.lines {
		if l.productID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) snapshotLocked() domain.Cart {
	out := domain.Cart{Lines: make([]domain.CartLine, 0, len(e.lines))}
	for _, l := range e.lines {
		total := l.unitPrice * int64(l.quantity)
		out.Lines = append(out.Lines, domain.CartLine{
			ProductID:      l.productID,
			Name:           l.name,
			ImageURL:       l.imageURL,
			Quantity:       l.quantity,
			UnitPriceCents: l.unitPrice,
			TotalCents:     total,
		})
		out.TotalItems += l.quantity
		out.TotalCents += total
	}
	return out
}
