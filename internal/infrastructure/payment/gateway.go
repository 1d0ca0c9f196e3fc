package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	dompay "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/pkg/retry"
)

// StubGateway simulates a provider that approves every charge. A repeated idempotency key
// returns the first result unchanged.
type StubGateway struct {
	prefix string
	now    func() time.Time
	// Decline, when set, returns a non-empty reason to reject a charge.
	Decline func(req dompay.ChargeRequest) string

	mu      sync.Mutex
	charges map[string]dompay.ChargeResult
}

func NewStubGateway(method dompay.Method) *StubGateway {
	return &StubGateway{
		prefix:  strings.ToUpper(string(method)),
		now:     time.Now,
		charges: make(map[string]dompay.ChargeResult),
	}
}

func (g *StubGateway) Charge(ctx context.Context, req dompay.ChargeRequest) (dompay.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return dompay.ChargeResult{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.charges[req.IdempotencyKey]; ok && prev.Status == dompay.StatusSuccess {
		return prev, nil
	}
	if g.Decline != nil {
		if reason := g.Decline(req); reason != "" {
			return dompay.ChargeResult{Status: dompay.StatusFailed, Reason: reason}, nil
		}
	}

	res := dompay.ChargeResult{
		Status:    dompay.StatusSuccess,
		PaymentID: fmt.Sprintf("%s_%d_%s", g.prefix, g.now().UnixMilli(), req.OrderID),
	}
	if req.IdempotencyKey != "" {
		g.charges[req.IdempotencyKey] = res
	}
	return res, nil
}

// Dispatcher routes a charge to the gateway registered for its method. Charges sharing an
// idempotency key run one at a time, and once one succeeds its result answers every later
// charge with that key whatever the method.
type Dispatcher struct {
	gateways map[dompay.Method]dompay.Gateway

	mu   sync.Mutex
	keys map[string]*keyedCharge
}

type keyedCharge struct {
	mu   sync.Mutex
	done bool
	res  dompay.ChargeResult
}

func NewDispatcher(gateways map[dompay.Method]dompay.Gateway) *Dispatcher {
	return &Dispatcher{gateways: gateways, keys: make(map[string]*keyedCharge)}
}

// NewStubDispatcher registers a stub gateway for every supported method.
func NewStubDispatcher() *Dispatcher {
	gws := make(map[dompay.Method]dompay.Gateway, len(dompay.Methods()))
	for _, m := range dompay.Methods() {
		gws[m] = NewStubGateway(m)
	}
	return NewDispatcher(gws)
}

func (d *Dispatcher) Charge(ctx context.Context, req dompay.ChargeRequest) (dompay.ChargeResult, error) {
	gw, ok := d.gateways[req.Method]
	if !ok {
		return dompay.ChargeResult{}, fmt.Errorf("%w: %s", dompay.ErrUnsupportedMethod, req.Method)
	}
	if req.IdempotencyKey == "" {
		return gw.Charge(ctx, req)
	}

	kc := d.keyed(req.IdempotencyKey)
	kc.mu.Lock()
	defer kc.mu.Unlock()
	if kc.done {
		return kc.res, nil
	}

	res, err := gw.Charge(ctx, req)
	if err == nil && res.Status == dompay.StatusSuccess {
		if res.Method == "" {
			res.Method = req.Method
		}
		kc.done, kc.res = true, res
	}
	return res, err
}

func (d *Dispatcher) keyed(key string) *keyedCharge {
	d.mu.Lock()
	defer d.mu.Unlock()
	kc, ok := d.keys[key]
	if !ok {
		kc = &keyedCharge{}
		d.keys[key] = kc
	}
	return kc
}

// Retrying retries transport failures of the wrapped gateway. Declines and unsupported
// methods are returned at once. Retries are safe because the idempotency key is resent.
type Retrying struct {
	next   dompay.Gateway
	policy retry.Policy
}

func NewRetrying(next dompay.Gateway, policy retry.Policy) *Retrying {
	return &Retrying{next: next, policy: policy}
}

func (r *Retrying) Charge(ctx context.Context, req dompay.ChargeRequest) (dompay.ChargeResult, error) {
	res, err := retry.Do(ctx, r.policy, func(ctx context.Context) (dompay.ChargeResult, error) {
		res, err := r.next.Charge(ctx, req)
		if errors.Is(err, dompay.ErrUnsupportedMethod) {
			return res, retry.Permanent(err)
		}
		return res, err
	})
	if err != nil {
		return dompay.ChargeResult{}, fmt.Errorf("%w: %w", dompay.ErrGatewayUnavailable, err)
	}
	return res, nil
}
