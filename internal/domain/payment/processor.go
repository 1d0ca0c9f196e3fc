package payment

import (
	"context"
	"errors"
)

var (
	ErrUnsupportedMethod  = errors.New("payment: unsupported payment method")
	ErrGatewayUnavailable = errors.New("payment: gateway unavailable")
)

type Method string

const (
	MethodAlipay Method = "alipay"
	MethodWechat Method = "wechat"
	MethodStripe Method = "stripe"
)

// Methods lists every accepted payment method.
func Methods() []Method { return []Method{MethodAlipay, MethodWechat, MethodStripe} }

func ParseMethod(s string) (Method, bool) {
	for _, m := range Methods() {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

type ChargeRequest struct {
	// IdempotencyKey identifies the charge; repeating it must not create a second payment.
	IdempotencyKey string
	OrderID        string
	OrderNumber    string
	Amount         int64
	Method         Method
}

type ChargeResult struct {
	Status    Status
	PaymentID string
	// Method is the method actually charged. It can differ from the request when an earlier
	// charge with the same idempotency key already succeeded.
	Method Method
	// Reason explains a failed charge.
	Reason string
}

// Gateway charges an order through an external payment provider. A returned error means the
// call itself failed; a declined charge is reported through ChargeResult.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}
