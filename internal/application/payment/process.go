package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/application"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService        = "payment-service"
	useCasePaymentProcess = "payment.process"
	gatewayPeer           = "payment_gateway"
	maxApplyAttempts      = 3
)

type ProcessPaymentInput struct {
	OrderID       string
	PaymentMethod string
}

type ProcessPaymentResult struct {
	PaymentID string
	// AlreadyPaid is set when the order had been paid before this call; nothing was charged.
	AlreadyPaid bool
	Order       *domorder.Order
}

// ProcessPaymentUseCase charges a pending order and moves it to processing. Repeated calls
// after success report AlreadyPaid with the first payment id.
type ProcessPaymentUseCase struct {
	orders    domorder.Repository
	gateway   dompay.Gateway
	publisher domoutbox.Publisher
	inst      application.Instrumentation
	unapplied observability.Counter // payment_charge_unapplied_total{method}
}

func NewProcessPaymentUseCase(orders domorder.Repository, gateway dompay.Gateway, publisher domoutbox.Publisher, tel observability.Observability) *ProcessPaymentUseCase {
	_, _, metrics := observability.Resolve(tel)
	return &ProcessPaymentUseCase{
		orders:    orders,
		gateway:   gateway,
		publisher: publisher,
		inst:      application.NewInstrumentation(paymentService, tel),
		unapplied: metrics.Counter(observability.MChargesUnapplied),
	}
}

func (uc *ProcessPaymentUseCase) Execute(ctx context.Context, cmd ProcessPaymentInput) (_ *ProcessPaymentResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCasePaymentProcess, "ProcessPayment",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("payment.method", cmd.PaymentMethod),
	)
	run.Annotate(
		observability.F("order_id", cmd.OrderID),
		observability.F("payment_method", cmd.PaymentMethod),
	)
	defer func() { run.End(err) }()

	caller, ok := identity.CallerFrom(ctx)
	if !ok {
		run.Reject("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}

	verr := &application.ValidationError{}
	if strings.TrimSpace(cmd.OrderID) == "" {
		verr.Add("orderId", "order id is required")
	}
	method, ok := dompay.ParseMethod(cmd.PaymentMethod)
	if !ok {
		verr.Add("paymentMethod", "must be one of alipay, wechat, stripe")
	}
	if err := verr.Err(); err != nil {
		run.Reject("VALIDATION_FAILED")
		return nil, err
	}

	// Only the owner may pay; admins get no exception here.
	o, err := apporder.LoadVisible(ctx, uc.orders, identity.Caller{UserID: caller.UserID, Role: identity.RoleUser}, cmd.OrderID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			run.Reject("ORDER_NOT_FOUND")
		} else {
			run.Fail("REPO_GET_FAILED")
		}
		return nil, err
	}

	if o.IsPaid() {
		run.Note("ALREADY_PAID")
		return &ProcessPaymentResult{PaymentID: o.PaymentID, AlreadyPaid: true, Order: o}, nil
	}
	if perr := o.CanPay(); perr != nil {
		run.Reject("ORDER_NOT_PAYABLE")
		return nil, application.ErrInvalidTransition
	}

	charge, err := uc.charge(ctx, o, method)
	if err != nil {
		run.Reject("PAYMENT_FAILED")
		return nil, err
	}
	run.Annotate(observability.F("payment_id", charge.PaymentID))
	run.Span().AddEvent("payment.charged", trace.WithAttributes(
		attribute.String("payment.id", charge.PaymentID),
		attribute.Int64("payment.amount", o.Total),
	))

	if charge.Method != "" && charge.Method != method {
		run.Annotate(observability.F("charged_method", string(charge.Method)))
		method = charge.Method
	}
	paid, already, err := uc.apply(ctx, run, o, method, charge.PaymentID)
	if err != nil {
		return nil, err
	}
	if already {
		run.Note("ALREADY_PAID")
		return &ProcessPaymentResult{PaymentID: paid.PaymentID, AlreadyPaid: true, Order: paid}, nil
	}

	uc.inst.Publish(ctx, run, uc.publisher, domorder.NewOrderPaidEvent(paid))
	return &ProcessPaymentResult{PaymentID: paid.PaymentID, Order: paid.Clone()}, nil
}

func (uc *ProcessPaymentUseCase) charge(ctx context.Context, o *domorder.Order, method dompay.Method) (dompay.ChargeResult, error) {
	started := time.Now()
	res, err := uc.gateway.Charge(ctx, dompay.ChargeRequest{
		IdempotencyKey: o.ID,
		OrderID:        o.ID,
		OrderNumber:    o.Number,
		Amount:         o.Total,
		Method:         method,
	})

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
		err = &application.AdapterError{Adapter: "payment", Err: err}
	case res.Status != dompay.StatusSuccess:
		outcome = "declined"
		reason := res.Reason
		if reason == "" {
			reason = "payment declined"
		}
		err = &application.AdapterError{Adapter: "payment", Reason: reason}
	}
	uc.inst.External(gatewayPeer, string(method), outcome, started)
	return res, err
}

// apply records the charge with a version check. When another call wins the race the stored
// order is returned with already set.
func (uc *ProcessPaymentUseCase) apply(ctx context.Context, run *application.Run, o *domorder.Order, method dompay.Method, paymentID string) (*domorder.Order, bool, error) {
	// The charge has happened; finish recording it even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	for attempt := 1; ; attempt++ {
		if o.IsPaid() {
			return o, true, nil
		}
		o.PaymentMethod = method
		if err := o.MarkPaid(paymentID); err != nil {
			// Money was taken but the order moved on; this needs a manual refund.
			run.Reject("ORDER_NOT_PAYABLE")
			uc.unapplied.Add(1, observability.L("method", string(method)))
			run.Span().AddEvent("payment.charge_unapplied", trace.WithAttributes(attribute.String("payment.id", paymentID)))
			run.Logger().Error("charge_not_applied",
				observability.F("payment_id", paymentID),
				observability.F("payment_method", string(method)),
				observability.F("order_status", string(o.Status)),
			)
			return nil, false, application.ErrInvalidTransition
		}

		err := uc.orders.Update(ctx, o)
		if err == nil {
			return o, false, nil
		}
		if !errors.Is(err, domorder.ErrConflict) || attempt == maxApplyAttempts {
			run.Fail("REPO_UPDATE_FAILED")
			return nil, false, application.RepositoryError(err)
		}

		run.Span().AddEvent("order.version_conflict", trace.WithAttributes(attribute.Int("attempt", attempt)))
		if o, err = uc.orders.Get(ctx, o.ID); err != nil {
			run.Fail("REPO_GET_FAILED")
			return nil, false, application.RepositoryError(err)
		}
	}
}
