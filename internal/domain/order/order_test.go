package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.New("o-1", "MM202601010001", "u-1",
		[]order.LineItem{{ProductID: "p-1", Name: "Mug", UnitPrice: 100, Quantity: 2}},
		order.ShippingAddress{Name: "A", Phone: "1", Address: "Street", City: "City", PostalCode: "100"},
		payment.MethodStripe, 10)
	require.NoError(t, err)
	return o
}

func TestNewComputesTotals(t *testing.T) {
	o := newOrder(t)

	assert.Equal(t, int64(200), o.Subtotal)
	assert.Equal(t, int64(210), o.Total)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentUnpaid, o.PaymentStatus)
	assert.NoError(t, o.CheckTotals())
}

func TestCheckTotalsDetectsTampering(t *testing.T) {
	o := newOrder(t)
	o.Items[0].Quantity = 3
	assert.ErrorIs(t, o.CheckTotals(), order.ErrTotalsMismatch)

	o = newOrder(t)
	o.Total++
	assert.ErrorIs(t, o.CheckTotals(), order.ErrTotalsMismatch)
}

func TestNewRejectsBadInput(t *testing.T) {
	addr := order.ShippingAddress{}

	_, err := order.New("o", "n", "u", nil, addr, payment.MethodAlipay, 0)
	assert.ErrorIs(t, err, order.ErrNoItems)

	_, err = order.New("o", "n", "u", []order.LineItem{{ProductID: "p", UnitPrice: 1, Quantity: 0}}, addr, payment.MethodAlipay, 0)
	assert.ErrorIs(t, err, order.ErrInvalidQuantity)

	_, err = order.New("o", "n", "u", []order.LineItem{{ProductID: "p", UnitPrice: 1, Quantity: 1}}, addr, payment.MethodAlipay, -1)
	assert.ErrorIs(t, err, order.ErrInvalidAmount)
}

func TestMarkPaid(t *testing.T) {
	o := newOrder(t)

	require.NoError(t, o.CanPay())
	require.NoError(t, o.MarkPaid("pay-1"))
	assert.Equal(t, order.StatusProcessing, o.Status)
	assert.Equal(t, order.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, "pay-1", o.PaymentID)
	assert.NotNil(t, o.PaidAt)

	assert.ErrorIs(t, o.CanPay(), order.ErrAlreadyPaid)
	assert.ErrorIs(t, o.MarkPaid("pay-2"), order.ErrAlreadyPaid)
	assert.Equal(t, "pay-1", o.PaymentID)
}

func TestCancelledOrderCannotBePaid(t *testing.T) {
	o := newOrder(t)
	require.NoError(t, o.Cancel())

	assert.ErrorIs(t, o.CanPay(), order.ErrInvalidStateTransition)
	assert.ErrorIs(t, o.MarkPaid("pay-1"), order.ErrInvalidStateTransition)
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(o *order.Order)
		target  order.Status
		wantErr error
		want    order.Status
	}{
		{name: "pending to shipped", target: order.StatusShipped, wantErr: order.ErrInvalidStateTransition},
		{name: "pending to processing", target: order.StatusProcessing, wantErr: order.ErrInvalidStateTransition},
		{name: "pending to cancelled", target: order.StatusCancelled, want: order.StatusCancelled},
		{
			name:    "processing to shipped",
			prepare: func(o *order.Order) { _ = o.MarkPaid("p") },
			target:  order.StatusShipped,
			want:    order.StatusShipped,
		},
		{
			name:    "processing to delivered",
			prepare: func(o *order.Order) { _ = o.MarkPaid("p") },
			target:  order.StatusDelivered,
			wantErr: order.ErrInvalidStateTransition,
		},
		{
			name:    "shipped to delivered",
			prepare: func(o *order.Order) { _ = o.MarkPaid("p"); _ = o.Ship("SF1", "") },
			target:  order.StatusDelivered,
			want:    order.StatusDelivered,
		},
		{
			name:    "delivered is terminal",
			prepare: func(o *order.Order) { _ = o.MarkPaid("p"); _ = o.Ship("SF1", ""); _ = o.Deliver() },
			target:  order.StatusCancelled,
			wantErr: order.ErrInvalidStateTransition,
		},
		{
			name:    "cancelled is terminal",
			prepare: func(o *order.Order) { _ = o.Cancel() },
			target:  order.StatusShipped,
			wantErr: order.ErrInvalidStateTransition,
		},
		{name: "back to pending", target: order.StatusPending, wantErr: order.ErrInvalidStateTransition},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := newOrder(t)
			if tc.prepare != nil {
				tc.prepare(o)
			}
			err := o.TransitionTo(tc.target, "", "")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, o.Status)
		})
	}
}

func TestReshipUpdatesTracking(t *testing.T) {
	o := newOrder(t)
	require.NoError(t, o.MarkPaid("p"))
	require.NoError(t, o.Ship("SF1", "SF Express"))
	require.NoError(t, o.Ship("SF2", ""))

	assert.Equal(t, order.StatusShipped, o.Status)
	assert.Equal(t, "SF2", o.TrackingNumber)
	assert.Equal(t, "SF Express", o.Carrier)
}

func TestParseStatus(t *testing.T) {
	s, ok := order.ParseStatus("shipped")
	assert.True(t, ok)
	assert.Equal(t, order.StatusShipped, s)

	_, ok = order.ParseStatus("teleported")
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	o := newOrder(t)
	c := o.Clone()
	c.Items[0].Quantity = 99

	assert.Equal(t, 2, o.Items[0].Quantity)
}
