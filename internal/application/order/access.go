package order

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/application/inventory"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
)

const orderService = "order-service"

// LoadVisible fetches an order the caller may see. Orders owned by someone else are reported
// as not found unless the caller is an admin.
func LoadVisible(ctx context.Context, repo domain.Repository, caller identity.Caller, id string) (*domain.Order, error) {
	o, err := repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !caller.IsAdmin() && !o.OwnedBy(caller.UserID) {
		return nil, application.ErrNotFound
	}
	return o, nil
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, domain.ErrConflict):
		return application.ErrConflict
	default:
		return application.RepositoryError(err)
	}
}

func reservationFor(o *domain.Order) inventory.ReserveInput {
	lines := make([]inventory.Line, len(o.Items))
	for i, it := range o.Items {
		lines[i] = inventory.Line{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity}
	}
	return inventory.ReserveInput{OrderRef: o.ID, Lines: lines}
}
