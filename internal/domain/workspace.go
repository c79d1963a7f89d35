package domain

import "time"

// WorkspaceSnapshot is the persisted state of one client: its session and
// its cart.
type WorkspaceSnapshot struct {
	ID        string
	Session   Session
	Cart      Cart
	UpdatedAt time.Time
}
