package order

import "context"

// ListQuery selects one page of a user's orders, newest first. An empty Status matches all.
type ListQuery struct {
	UserID string
	Status Status
	Offset int
	Limit  int
}

type Repository interface {
	// Insert stores a new order. It returns ErrDuplicateNumber when the order number is taken
	// and ErrConflict when the id already exists.
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// ListByUser returns one page of orders and the total number of matches.
	ListByUser(ctx context.Context, q ListQuery) ([]*Order, int, error)
	// Update persists o only if the stored version equals o.Version. On success o.Version is
	// incremented; a stale version yields ErrConflict.
	Update(ctx context.Context, o *Order) error
}
