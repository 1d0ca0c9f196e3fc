package order

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/application/inventory"
)

type IDGenerator interface {
	NewID() string
}

// NumberGenerator produces human-readable order numbers. Collisions are possible and are
// resolved by asking again.
type NumberGenerator interface {
	Next(now time.Time) string
}

// StockReserver takes and returns stock for the lines of an order.
type StockReserver interface {
	Reserve(ctx context.Context, in inventory.ReserveInput) (*inventory.Reservation, error)
	Release(ctx context.Context, in inventory.ReserveInput) error
}
