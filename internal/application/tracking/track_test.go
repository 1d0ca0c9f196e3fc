package tracking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/application"
	apptracking "github.com/Zhima-Mochi/storefront/internal/application/tracking"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	dompay "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	domtrack "github.com/Zhima-Mochi/storefront/internal/domain/tracking"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
	infratrack "github.com/Zhima-Mochi/storefront/internal/infrastructure/tracking"
)

type unknownCarrier struct{}

func (unknownCarrier) Lookup(context.Context, string, string) (domtrack.Snapshot, error) {
	return domtrack.Snapshot{}, domtrack.ErrUnknownShipment
}

func userCtx(userID string) context.Context {
	return identity.WithCaller(context.Background(), identity.Caller{UserID: userID, Role: identity.RoleUser})
}

func seedOrder(t *testing.T, repo *memory.OrderRepository, trackingNumber string) *domorder.Order {
	t.Helper()
	o, err := domorder.New("o-1", "MM202601010001", "u-1",
		[]domorder.LineItem{{ProductID: "p-1", Name: "Mug", UnitPrice: 100, Quantity: 1}},
		domorder.ShippingAddress{Name: "Li Lei", Phone: "1", Address: "1 Main St", City: "Shanghai"},
		dompay.MethodWechat, 10)
	require.NoError(t, err)
	if trackingNumber != "" {
		require.NoError(t, o.MarkPaid("PAY-1"))
		require.NoError(t, o.Ship(trackingNumber, ""))
	}
	require.NoError(t, repo.Insert(context.Background(), o))
	return o
}

func TestTrackOrderNotShipped(t *testing.T) {
	orders := memory.NewOrderRepository()
	uc := apptracking.NewTrackOrderUseCase(orders, unknownCarrier{}, nil)
	seedOrder(t, orders, "")

	res, err := uc.Execute(userCtx("u-1"), apptracking.TrackOrderInput{OrderID: "o-1"})
	require.NoError(t, err)

	assert.False(t, res.Shipped)
	assert.Equal(t, "order has not been shipped yet", res.Message)
	assert.Equal(t, domtrack.StatusPending, res.Snapshot.Status)
	assert.Equal(t, domorder.StatusPending, res.OrderStatus)
	assert.Equal(t, "MM202601010001", res.OrderNumber)
}

func TestTrackOrderShipped(t *testing.T) {
	orders := memory.NewOrderRepository()
	uc := apptracking.NewTrackOrderUseCase(orders, infratrack.NewStubCarrier(), nil)
	seedOrder(t, orders, "SF123")

	res, err := uc.Execute(userCtx("u-1"), apptracking.TrackOrderInput{OrderID: "o-1"})
	require.NoError(t, err)

	assert.True(t, res.Shipped)
	assert.Empty(t, res.Message)
	assert.Equal(t, "SF123", res.Snapshot.TrackingNumber)
	assert.Equal(t, infratrack.DefaultCarrier, res.Snapshot.Carrier)
	assert.NotEqual(t, domtrack.StatusPending, res.Snapshot.Status)
	assert.NotEmpty(t, res.Snapshot.Timeline)
	require.NotNil(t, res.Snapshot.EstimatedDelivery)
}

func TestTrackOrderAdapterFailure(t *testing.T) {
	orders := memory.NewOrderRepository()
	uc := apptracking.NewTrackOrderUseCase(orders, unknownCarrier{}, nil)
	seedOrder(t, orders, "SF123")

	_, err := uc.Execute(userCtx("u-1"), apptracking.TrackOrderInput{OrderID: "o-1"})
	require.ErrorIs(t, err, application.ErrAdapterFailure)
	require.ErrorIs(t, err, domtrack.ErrUnknownShipment)

	var adErr *application.AdapterError
	require.ErrorAs(t, err, &adErr)
	assert.Equal(t, "tracking", adErr.Adapter)
}

func TestTrackOrderVisibility(t *testing.T) {
	orders := memory.NewOrderRepository()
	uc := apptracking.NewTrackOrderUseCase(orders, infratrack.NewStubCarrier(), nil)
	seedOrder(t, orders, "SF123")

	_, err := uc.Execute(userCtx("u-2"), apptracking.TrackOrderInput{OrderID: "o-1"})
	require.ErrorIs(t, err, application.ErrNotFound)

	_, err = uc.Execute(context.Background(), apptracking.TrackOrderInput{OrderID: "o-1"})
	require.ErrorIs(t, err, application.ErrUnauthenticated)

	admin := identity.WithCaller(context.Background(), identity.Caller{UserID: "admin", Role: identity.RoleAdmin})
	res, err := uc.Execute(admin, apptracking.TrackOrderInput{OrderID: "o-1"})
	require.NoError(t, err)
	assert.True(t, res.Shipped)
}
