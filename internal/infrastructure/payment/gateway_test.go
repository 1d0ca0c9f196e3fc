package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	dompay "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/pkg/retry"
)

func chargeReq(method dompay.Method) dompay.ChargeRequest {
	return dompay.ChargeRequest{IdempotencyKey: "o-1", OrderID: "o-1", Amount: 210, Method: method}
}

func TestStubGatewayIsIdempotent(t *testing.T) {
	gw := NewStubGateway(dompay.MethodAlipay)

	first, err := gw.Charge(context.Background(), chargeReq(dompay.MethodAlipay))
	require.NoError(t, err)
	second, err := gw.Charge(context.Background(), chargeReq(dompay.MethodAlipay))
	require.NoError(t, err)

	assert.Equal(t, dompay.StatusSuccess, first.Status)
	assert.Contains(t, first.PaymentID, "ALIPAY_")
	assert.Equal(t, first.PaymentID, second.PaymentID)
}

func TestStubGatewayDecline(t *testing.T) {
	gw := NewStubGateway(dompay.MethodStripe)
	gw.Decline = func(dompay.ChargeRequest) string { return "card declined" }

	res, err := gw.Charge(context.Background(), chargeReq(dompay.MethodStripe))
	require.NoError(t, err)
	assert.Equal(t, dompay.StatusFailed, res.Status)
	assert.Equal(t, "card declined", res.Reason)
	assert.Empty(t, res.PaymentID)
}

func TestDispatcherRoutesByMethod(t *testing.T) {
	d := NewStubDispatcher()

	res, err := d.Charge(context.Background(), chargeReq(dompay.MethodWechat))
	require.NoError(t, err)
	assert.Contains(t, res.PaymentID, "WECHAT_")

	_, err = d.Charge(context.Background(), chargeReq("cash"))
	assert.ErrorIs(t, err, dompay.ErrUnsupportedMethod)
}

func TestDispatcherChargesKeyOnceAcrossMethods(t *testing.T) {
	d := NewStubDispatcher()

	methods := []dompay.Method{dompay.MethodAlipay, dompay.MethodWechat, dompay.MethodStripe, dompay.MethodWechat}
	results := make([]dompay.ChargeResult, len(methods))
	var g errgroup.Group
	for i, m := range methods {
		g.Go(func() error {
			res, err := d.Charge(context.Background(), chargeReq(m))
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, res := range results {
		assert.Equal(t, dompay.StatusSuccess, res.Status)
		assert.Equal(t, results[0].PaymentID, res.PaymentID)
		assert.Equal(t, results[0].Method, res.Method)
	}
	assert.Contains(t, results[0].PaymentID, strings.ToUpper(string(results[0].Method))+"_")
}

func TestDispatcherRetriesKeyAfterDecline(t *testing.T) {
	alipay := NewStubGateway(dompay.MethodAlipay)
	alipay.Decline = func(dompay.ChargeRequest) string { return "insufficient balance" }
	d := NewDispatcher(map[dompay.Method]dompay.Gateway{
		dompay.MethodAlipay: alipay,
		dompay.MethodWechat: NewStubGateway(dompay.MethodWechat),
	})

	res, err := d.Charge(context.Background(), chargeReq(dompay.MethodAlipay))
	require.NoError(t, err)
	assert.Equal(t, dompay.StatusFailed, res.Status)

	res, err = d.Charge(context.Background(), chargeReq(dompay.MethodWechat))
	require.NoError(t, err)
	assert.Equal(t, dompay.StatusSuccess, res.Status)
	assert.Equal(t, dompay.MethodWechat, res.Method)
	assert.Contains(t, res.PaymentID, "WECHAT_")
}

type flakyGateway struct {
	failures int
	calls    int
}

func (f *flakyGateway) Charge(context.Context, dompay.ChargeRequest) (dompay.ChargeResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return dompay.ChargeResult{}, errors.New("connection reset")
	}
	return dompay.ChargeResult{Status: dompay.StatusSuccess, PaymentID: "pay-1"}, nil
}

func TestRetryingRecoversFromTransientErrors(t *testing.T) {
	next := &flakyGateway{failures: 2}
	gw := NewRetrying(next, retry.Policy{Attempts: 3, Backoff: time.Millisecond})

	res, err := gw.Charge(context.Background(), chargeReq(dompay.MethodAlipay))
	require.NoError(t, err)
	assert.Equal(t, "pay-1", res.PaymentID)
	assert.Equal(t, 3, next.calls)
}

func TestRetryingGivesUp(t *testing.T) {
	next := &flakyGateway{failures: 5}
	gw := NewRetrying(next, retry.Policy{Attempts: 2, Backoff: time.Millisecond})

	_, err := gw.Charge(context.Background(), chargeReq(dompay.MethodAlipay))
	assert.ErrorIs(t, err, dompay.ErrGatewayUnavailable)
	assert.Equal(t, 2, next.calls)
}
