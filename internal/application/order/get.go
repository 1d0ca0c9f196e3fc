package order

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseOrderGet  = "order.get"
	useCaseOrderList = "order.list"

	defaultListLimit = 10
	maxListLimit     = 100
)

type GetOrderInput struct {
	OrderID string
}

type GetOrderUseCase struct {
	orders domain.Repository
	inst   application.Instrumentation
}

func NewGetOrderUseCase(orders domain.Repository, tel observability.Observability) *GetOrderUseCase {
	return &GetOrderUseCase{orders: orders, inst: application.NewInstrumentation(orderService, tel)}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, cmd GetOrderInput) (_ *domain.Order, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseOrderGet, "GetOrder", attribute.String("order.id", cmd.OrderID))
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

	o, err := LoadVisible(ctx, uc.orders, caller, cmd.OrderID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			run.Reject("ORDER_NOT_FOUND")
		} else {
			run.Fail("REPO_GET_FAILED")
		}
		return nil, err
	}
	return o, nil
}

type ListOrdersInput struct {
	Page   int
	Limit  int
	Status string
}

type ListOrdersResult struct {
	Orders []*domain.Order
	Page   int
	Limit  int
	Total  int
	Pages  int
}

// ListOrdersUseCase pages through the caller's own orders, newest first.
type ListOrdersUseCase struct {
	orders domain.Repository
	inst   application.Instrumentation
}

func NewListOrdersUseCase(orders domain.Repository, tel observability.Observability) *ListOrdersUseCase {
	return &ListOrdersUseCase{orders: orders, inst: application.NewInstrumentation(orderService, tel)}
}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, cmd ListOrdersInput) (_ *ListOrdersResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseOrderList, "ListOrders")
	defer func() { run.End(err) }()

	caller, ok := identity.CallerFrom(ctx)
	if !ok {
		run.Reject("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}

	var status domain.Status
	if cmd.Status != "" {
		s, ok := domain.ParseStatus(cmd.Status)
		if !ok {
			run.Reject("STATUS_INVALID")
			return nil, application.Invalid("status", "unknown order status")
		}
		status = s
	}

	page, limit := application.Page(cmd.Page, cmd.Limit, defaultListLimit, maxListLimit)
	orders, total, err := uc.orders.ListByUser(ctx, domain.ListQuery{
		UserID: caller.UserID,
		Status: status,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return nil, application.RepositoryError(err)
	}
	run.Annotate(observability.F("total", total))

	return &ListOrdersResult{
		Orders: orders,
		Page:   page,
		Limit:  limit,
		Total:  total,
		Pages:  application.Pages(total, limit),
	}, nil
}
