package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	inventoryService = "inventory-service"
	useCaseReserve   = "inventory.reserve"
	useCaseRelease   = "inventory.release"
)

// Line is a quantity of one product to reserve or release.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
}

type ReserveInput struct {
	OrderRef string
	Lines    []Line
}

type Reservation struct {
	Lines []Line
}

// Service reserves stock with per-product conditional decrements. A failed line rolls back the
// lines already taken before the error is returned.
type Service struct {
	products   catalog.Repository
	inst       application.Instrumentation
	rejections observability.Counter // stock_reservation_rejected_total{reason}
}

func NewService(products catalog.Repository, tel observability.Observability) *Service {
	_, _, metrics := observability.Resolve(tel)
	return &Service{
		products:   products,
		inst:       application.NewInstrumentation(inventoryService, tel),
		rejections: metrics.Counter(observability.MStockRejections),
	}
}

func (s *Service) Reserve(ctx context.Context, in ReserveInput) (_ *Reservation, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseReserve, "ReserveStock",
		attribute.String("order.ref", in.OrderRef),
		attribute.Int("inventory.lines", len(in.Lines)),
	)
	run.Annotate(observability.F("order_ref", in.OrderRef))
	defer func() { run.End(err) }()

	taken := make([]Line, 0, len(in.Lines))
	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			run.Reject("QUANTITY_INVALID")
			s.rollback(ctx, run, taken)
			return nil, application.Invalid("items", "quantity must be at least 1")
		}

		remaining, derr := s.products.DecrementStock(ctx, line.ProductID, line.Quantity)
		if derr != nil {
			s.rollback(ctx, run, taken)
			return nil, s.classify(run, line, derr)
		}
		taken = append(taken, line)
		run.Span().AddEvent("stock.decremented", trace.WithAttributes(
			attribute.String("product.id", line.ProductID),
			attribute.Int("quantity", line.Quantity),
			attribute.Int("stock.remaining", remaining),
		))
	}

	return &Reservation{Lines: taken}, nil
}

// Release returns reserved stock. Every line is attempted; failures are joined.
func (s *Service) Release(ctx context.Context, in ReserveInput) (err error) {
	ctx, run := s.inst.Begin(ctx, useCaseRelease, "ReleaseStock",
		attribute.String("order.ref", in.OrderRef),
	)
	run.Annotate(observability.F("order_ref", in.OrderRef))
	defer func() { run.End(err) }()

	var errs []error
	for _, line := range in.Lines {
		if ierr := s.products.IncrementStock(ctx, line.ProductID, line.Quantity); ierr != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", line.ProductID, ierr))
		}
	}
	if len(errs) > 0 {
		run.Fail("STOCK_RELEASE_FAILED")
		return application.RepositoryError(errors.Join(errs...))
	}
	return nil
}

func (s *Service) rollback(ctx context.Context, run *application.Run, taken []Line) {
	if len(taken) == 0 {
		return
	}
	// Compensation must run even when the caller has gone away.
	ctx = context.WithoutCancel(ctx)
	for _, line := range taken {
		if err := s.products.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			run.Logger().Error("stock_compensation_failed",
				observability.F("product_id", line.ProductID),
				observability.F("quantity", line.Quantity),
				observability.F("error", err),
			)
		}
	}
	run.Annotate(observability.F("compensated_lines", len(taken)))
}

func (s *Service) classify(run *application.Run, line Line, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		run.Reject("PRODUCT_NOT_FOUND")
		return &application.ItemError{ProductID: line.ProductID, Name: line.Name, Err: application.ErrNotFound}
	case errors.Is(err, catalog.ErrInactive):
		run.Reject("PRODUCT_INACTIVE")
		return &application.ItemError{ProductID: line.ProductID, Name: line.Name, Err: application.ErrInactive}
	case errors.Is(err, catalog.ErrInsufficientStock):
		run.Reject("INSUFFICIENT_STOCK")
		s.rejections.Add(1, observability.L("reason", "insufficient_stock"))
		return &application.ItemError{ProductID: line.ProductID, Name: line.Name, Err: application.ErrInsufficientStock}
	default:
		run.Fail("STOCK_DECREMENT_FAILED")
		return application.RepositoryError(err)
	}
}
