package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService = "catalog-service"
	useCaseList    = "catalog.list"
	useCaseGet     = "catalog.get"
	defaultLimit   = 20
	maxLimit       = 100
	allCategories  = "all"
)

type ListProductsInput struct {
	Category string
	Sort     string
	Page     int
	Limit    int
}

type ListProductsResult struct {
	Products   []*domain.Product
	Categories []string
	Page       int
	Limit      int
	Total      int
	Pages      int
}

type ListProductsUseCase struct {
	products domain.Repository
	inst     application.Instrumentation
}

func NewListProductsUseCase(products domain.Repository, tel observability.Observability) *ListProductsUseCase {
	return &ListProductsUseCase{products: products, inst: application.NewInstrumentation(catalogService, tel)}
}

func (uc *ListProductsUseCase) Execute(ctx context.Context, cmd ListProductsInput) (_ *ListProductsResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseList, "ListProducts",
		attribute.String("catalog.category", cmd.Category),
		attribute.String("catalog.sort", cmd.Sort),
	)
	defer func() { run.End(err) }()

	sort := domain.SortDateDesc
	if cmd.Sort != "" {
		sort = domain.Sort(cmd.Sort)
		if !sort.Valid() {
			run.Reject("SORT_INVALID")
			return nil, application.Invalid("sort", "must be one of price_asc, price_desc, date_desc, date_asc")
		}
	}
	category := strings.TrimSpace(cmd.Category)
	if strings.EqualFold(category, allCategories) {
		category = ""
	}

	page, limit := application.Page(cmd.Page, cmd.Limit, defaultLimit, maxLimit)
	products, total, err := uc.products.List(ctx, domain.ListQuery{
		Category: category,
		Sort:     sort,
		Offset:   (page - 1) * limit,
		Limit:    limit,
	})
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return nil, application.RepositoryError(err)
	}
	categories, err := uc.products.Categories(ctx)
	if err != nil {
		run.Fail("REPO_CATEGORIES_FAILED")
		return nil, application.RepositoryError(err)
	}
	run.Annotate(observability.F("total", total))

	return &ListProductsResult{
		Products:   products,
		Categories: categories,
		Page:       page,
		Limit:      limit,
		Total:      total,
		Pages:      application.Pages(total, limit),
	}, nil
}

type GetProductInput struct {
	ProductID string
}

// GetProductUseCase returns an active product. Inactive products are reported as not found.
type GetProductUseCase struct {
	products domain.Repository
	inst     application.Instrumentation
}

func NewGetProductUseCase(products domain.Repository, tel observability.Observability) *GetProductUseCase {
	return &GetProductUseCase{products: products, inst: application.NewInstrumentation(catalogService, tel)}
}

func (uc *GetProductUseCase) Execute(ctx context.Context, cmd GetProductInput) (_ *domain.Product, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseGet, "GetProduct", attribute.String("product.id", cmd.ProductID))
	run.Annotate(observability.F("product_id", cmd.ProductID))
	defer func() { run.End(err) }()

	p, err := uc.products.Get(ctx, cmd.ProductID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		run.Reject("PRODUCT_NOT_FOUND")
		return nil, application.ErrNotFound
	case err != nil:
		run.Fail("REPO_GET_FAILED")
		return nil, application.RepositoryError(err)
	case !p.IsActive:
		run.Reject("PRODUCT_INACTIVE")
		return nil, application.ErrNotFound
	}
	return p, nil
}
