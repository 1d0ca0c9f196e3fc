package tracking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/application"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domtrack "github.com/Zhima-Mochi/storefront/internal/domain/tracking"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	trackingService = "tracking-service"
	useCaseTrack    = "tracking.query"
	carrierPeer     = "carrier"

	notShippedMessage = "order has not been shipped yet"
)

type TrackOrderInput struct {
	OrderID string
}

type TrackOrderResult struct {
	OrderID     string
	OrderNumber string
	OrderStatus domorder.Status
	// Shipped is false when no tracking number is attached; Snapshot then only carries a
	// pending status and Message explains why.
	Shipped  bool
	Message  string
	Snapshot domtrack.Snapshot
}

type TrackOrderUseCase struct {
	orders  domorder.Repository
	adapter domtrack.Adapter
	inst    application.Instrumentation
}

func NewTrackOrderUseCase(orders domorder.Repository, adapter domtrack.Adapter, tel observability.Observability) *TrackOrderUseCase {
	return &TrackOrderUseCase{
		orders:  orders,
		adapter: adapter,
		inst:    application.NewInstrumentation(trackingService, tel),
	}
}

func (uc *TrackOrderUseCase) Execute(ctx context.Context, cmd TrackOrderInput) (_ *TrackOrderResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseTrack, "TrackOrder", attribute.String("order.id", cmd.OrderID))
	run.Annotate(observability.F("order_id", cmd.OrderID))
	defer func() { run.End(err) }()

	caller, ok := identity.CallerFrom(ctx)
	if !ok {
		run.Reject("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}
	if strings.TrimSpace(cmd.OrderID) == "" {
		run.Reject("ORDER_ID_REQUIRED")
		return nil, application.Invalid("orderId", "order id is required")
	}

	o, err := apporder.LoadVisible(ctx, uc.orders, caller, cmd.OrderID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			run.Reject("ORDER_NOT_FOUND")
		} else {
			run.Fail("REPO_GET_FAILED")
		}
		return nil, err
	}

	result := &TrackOrderResult{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		OrderStatus: o.Status,
	}
	if o.TrackingNumber == "" {
		run.Note("NOT_SHIPPED")
		result.Message = notShippedMessage
		result.Snapshot = domtrack.Snapshot{Status: domtrack.StatusPending, Carrier: o.Carrier}
		return result, nil
	}

	started := time.Now()
	snap, err := uc.adapter.Lookup(ctx, o.TrackingNumber, o.Carrier)
	if err != nil {
		uc.inst.External(carrierPeer, "lookup", "error", started)
		run.Reject("TRACKING_LOOKUP_FAILED")
		return nil, &application.AdapterError{Adapter: "tracking", Err: err}
	}
	uc.inst.External(carrierPeer, "lookup", "success", started)

	run.Span().SetAttributes(attribute.String("tracking.status", string(snap.Status)))
	result.Shipped = true
	result.Snapshot = snap
	return result, nil
}
