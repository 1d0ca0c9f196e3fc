package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	useCaseOrderCreate = "order.create"
	maxNumberAttempts  = 8
	lookupConcurrency  = 8
	// maxLineQuantity bounds the merged quantity of one product in an order.
	maxLineQuantity = 10000
)

type ItemInput struct {
	ProductID string
	Quantity  int
}

type ShippingInput struct {
	Name       string
	Phone      string
	Address    string
	City       string
	PostalCode string
}

type CreateOrderInput struct {
	Items         []ItemInput
	Shipping      ShippingInput
	PaymentMethod string
}

type CreateOrderConfig struct {
	// ShippingFee is the flat fee in minor units added to every order.
	ShippingFee int64
}

// CreateOrderUseCase admits a cart: prices it from the catalog, takes stock and persists a
// pending order. Any failure leaves stock and orders untouched.
type CreateOrderUseCase struct {
	orders    domain.Repository
	products  catalog.Repository
	stock     StockReserver
	ids       IDGenerator
	numbers   NumberGenerator
	publisher domoutbox.Publisher
	cfg       CreateOrderConfig
	inst      application.Instrumentation
}

func NewCreateOrderUseCase(
	orders domain.Repository,
	products catalog.Repository,
	stock StockReserver,
	ids IDGenerator,
	numbers NumberGenerator,
	publisher domoutbox.Publisher,
	cfg CreateOrderConfig,
	tel observability.Observability,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orders:    orders,
		products:  products,
		stock:     stock,
		ids:       ids,
		numbers:   numbers,
		publisher: publisher,
		cfg:       cfg,
		inst:      application.NewInstrumentation(orderService, tel),
	}
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *domain.Order, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseOrderCreate, "CreateOrder",
		attribute.Int("order.items", len(cmd.Items)),
		attribute.String("payment.method", cmd.PaymentMethod),
	)
	defer func() { run.End(err) }()

	caller, ok := identity.CallerFrom(ctx)
	if !ok {
		run.Reject("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}
	run.Annotate(observability.F("user_id", caller.UserID))

	method, verr := validateCreate(cmd)
	if verr != nil {
		run.Reject("VALIDATION_FAILED")
		return nil, verr
	}
	requested := mergeItems(cmd.Items)

	items, err := uc.price(ctx, requested)
	if err != nil {
		if errors.Is(err, application.ErrRepository) {
			run.Fail("PRODUCT_LOOKUP_FAILED")
		} else {
			run.Reject("ITEM_REJECTED")
		}
		return nil, err
	}

	entity, derr := domain.New(uc.ids.NewID(), "", caller.UserID, items, domain.ShippingAddress(cmd.Shipping), method, uc.cfg.ShippingFee)
	if derr != nil {
		run.Fail("DOMAIN_CONSTRUCTION_FAILED")
		return nil, fmt.Errorf("order: construct: %w", derr)
	}
	if terr := entity.CheckTotals(); terr != nil {
		run.Fail("TOTALS_MISMATCH")
		return nil, fmt.Errorf("order: construct: %w", terr)
	}
	run.Annotate(observability.F("order_id", entity.ID))
	run.Span().SetAttributes(attribute.String("order.id", entity.ID))

	reservation := reservationFor(entity)
	if _, err := uc.stock.Reserve(ctx, reservation); err != nil {
		if errors.Is(err, application.ErrRepository) {
			run.Fail("STOCK_RESERVATION_FAILED")
		} else {
			run.Reject("STOCK_REJECTED")
		}
		return nil, err
	}

	if err := uc.insert(ctx, run, entity); err != nil {
		// The order never became visible; hand the stock back.
		if rerr := uc.stock.Release(context.WithoutCancel(ctx), reservation); rerr != nil {
			run.Logger().Error("stock_release_failed",
				observability.F("order_id", entity.ID),
				observability.F("error", rerr),
			)
			err = errors.Join(err, rerr)
		}
		run.Fail("REPO_INSERT_FAILED")
		return nil, err
	}

	run.Annotate(
		observability.F("order_number", entity.Number),
		observability.F("total", entity.Total),
	)
	run.Span().SetAttributes(attribute.String("order.number", entity.Number))
	run.Span().AddEvent("order.created", trace.WithAttributes(
		attribute.String("order.id", entity.ID),
		attribute.Int64("order.total", entity.Total),
	))

	uc.inst.Publish(ctx, run, uc.publisher, domain.NewOrderCreatedEvent(entity))
	return entity.Clone(), nil
}

// insert assigns a fresh order number for every attempt until the store accepts one.
func (uc *CreateOrderUseCase) insert(ctx context.Context, run *application.Run, o *domain.Order) error {
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		o.Number = uc.numbers.Next(time.Now())
		err := uc.orders.Insert(ctx, o)
		if err == nil {
			if attempt > 1 {
				run.Annotate(observability.F("number_attempts", attempt))
			}
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicateNumber) {
			return mapRepoError(err)
		}
		run.Span().AddEvent("order.number_collision", trace.WithAttributes(
			attribute.String("order.number", o.Number),
			attribute.Int("attempt", attempt),
		))
	}
	return fmt.Errorf("%w: no free order number after %d attempts", application.ErrConflict, maxNumberAttempts)
}

// price reads every product concurrently and captures its name and unit price.
func (uc *CreateOrderUseCase) price(ctx context.Context, items []ItemInput) ([]domain.LineItem, error) {
	lines := make([]domain.LineItem, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, it := range items {
		g.Go(func() error {
			p, err := uc.products.Get(gctx, it.ProductID)
			switch {
			case errors.Is(err, catalog.ErrNotFound):
				return &application.ItemError{ProductID: it.ProductID, Err: application.ErrNotFound}
			case err != nil:
				return application.RepositoryError(err)
			case !p.IsActive:
				return &application.ItemError{ProductID: p.ID, Name: p.Name, Err: application.ErrInactive}
			case p.Stock < it.Quantity:
				return &application.ItemError{ProductID: p.ID, Name: p.Name, Err: application.ErrInsufficientStock}
			}
			lines[i] = domain.LineItem{
				ProductID: p.ID,
				Name:      p.Name,
				UnitPrice: p.Price,
				Quantity:  it.Quantity,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lines, nil
}

func validateCreate(cmd CreateOrderInput) (payment.Method, error) {
	verr := &application.ValidationError{}

	if len(cmd.Items) == 0 {
		verr.Add("items", "at least one item is required")
	}
	merged := make(map[string]int, len(cmd.Items))
	for i, it := range cmd.Items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			verr.Add(fmt.Sprintf("items[%d].productId", i), "product id is required")
		}
		switch {
		case it.Quantity < 1:
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		case it.Quantity > maxLineQuantity-merged[id]:
			verr.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("quantity per product must not exceed %d", maxLineQuantity))
		default:
			merged[id] += it.Quantity
		}
	}

	required := []struct{ field, value string }{
		{"shipping.name", cmd.Shipping.Name},
		{"shipping.phone", cmd.Shipping.Phone},
		{"shipping.address", cmd.Shipping.Address},
		{"shipping.city", cmd.Shipping.City},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			verr.Add(r.field, "is required")
		}
	}

	method, ok := payment.ParseMethod(cmd.PaymentMethod)
	if !ok {
		verr.Add("paymentMethod", "must be one of alipay, wechat, stripe")
	}
	return method, verr.Err()
}

// mergeItems folds repeated products into one line, keeping first-seen order.
func mergeItems(items []ItemInput) []ItemInput {
	idx := make(map[string]int, len(items))
	out := make([]ItemInput, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if i, ok := idx[id]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[id] = len(out)
		out = append(out, ItemInput{ProductID: id, Quantity: it.Quantity})
	}
	return out
}
