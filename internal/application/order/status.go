package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	useCaseOrderStatus = "order.update_status"
	maxUpdateAttempts  = 3
)

type UpdateStatusInput struct {
	OrderID        string
	Status         string
	TrackingNumber string
	Carrier        string
}

// UpdateStatusUseCase applies an operator transition. Cancelling returns the order's stock.
type UpdateStatusUseCase struct {
	orders    domain.Repository
	stock     StockReserver
	publisher domoutbox.Publisher
	inst      application.Instrumentation
}

func NewUpdateStatusUseCase(orders domain.Repository, stock StockReserver, publisher domoutbox.Publisher, tel observability.Observability) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{
		orders:    orders,
		stock:     stock,
		publisher: publisher,
		inst:      application.NewInstrumentation(orderService, tel),
	}
}

func (uc *UpdateStatusUseCase) Execute(ctx context.Context, cmd UpdateStatusInput) (_ *domain.Order, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseOrderStatus, "UpdateOrderStatus",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.target_status", cmd.Status),
	)
	run.Annotate(
		observability.F("order_id", cmd.OrderID),
		observability.F("target_status", cmd.Status),
	)
	defer func() { run.End(err) }()

	caller, ok := identity.CallerFrom(ctx)
	if !ok {
		run.Reject("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		run.Reject("FORBIDDEN")
		return nil, application.ErrForbidden
	}

	verr := &application.ValidationError{}
	if strings.TrimSpace(cmd.OrderID) == "" {
		verr.Add("orderId", "order id is required")
	}
	target, ok := domain.ParseStatus(cmd.Status)
	if !ok {
		verr.Add("status", "must be one of pending, processing, shipped, delivered, cancelled")
	}
	if err := verr.Err(); err != nil {
		run.Reject("VALIDATION_FAILED")
		return nil, err
	}

	var (
		o    *domain.Order
		from domain.Status
	)
	for attempt := 1; ; attempt++ {
		o, err = uc.orders.Get(ctx, cmd.OrderID)
		if err != nil {
			err = mapRepoError(err)
			if errors.Is(err, application.ErrNotFound) {
				run.Reject("ORDER_NOT_FOUND")
			} else {
				run.Fail("REPO_GET_FAILED")
			}
			return nil, err
		}

		from = o.Status
		if terr := o.TransitionTo(target, strings.TrimSpace(cmd.TrackingNumber), strings.TrimSpace(cmd.Carrier)); terr != nil {
			run.Reject("INVALID_TRANSITION")
			return nil, fmt.Errorf("%w: %s to %s", application.ErrInvalidTransition, from, target)
		}

		err = uc.orders.Update(ctx, o)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == maxUpdateAttempts {
			run.Fail("REPO_UPDATE_FAILED")
			return nil, mapRepoError(err)
		}
		run.Span().AddEvent("order.version_conflict", trace.WithAttributes(attribute.Int("attempt", attempt)))
	}

	run.Span().AddEvent("order.status_changed", trace.WithAttributes(
		attribute.String("order.from", string(from)),
		attribute.String("order.to", string(o.Status)),
	))
	run.Annotate(observability.F("from_status", string(from)))

	if o.Status == domain.StatusCancelled {
		// The CAS above admits exactly one cancellation, so the release cannot repeat.
		// It must finish even if the caller has gone away.
		if rerr := uc.stock.Release(context.WithoutCancel(ctx), reservationFor(o)); rerr != nil {
			run.Fail("STOCK_RELEASE_FAILED")
			return nil, rerr
		}
	}

	uc.inst.Publish(ctx, run, uc.publisher, domain.NewOrderStatusChangedEvent(o, from))
	return o.Clone(), nil
}
