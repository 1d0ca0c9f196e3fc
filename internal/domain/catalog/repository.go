package catalog

import "context"

type Sort string

const (
	SortDateDesc  Sort = "date_desc"
	SortDateAsc   Sort = "date_asc"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

func (s Sort) Valid() bool {
	switch s {
	case SortDateDesc, SortDateAsc, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

// ListQuery selects active products. An empty Category matches every category.
type ListQuery struct {
	Category string
	Sort     Sort
	Offset   int
	Limit    int
}

type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	// List returns one page of active products and the total number of matches.
	List(ctx context.Context, q ListQuery) ([]*Product, int, error)
	// Categories returns the distinct categories of active products.
	Categories(ctx context.Context) ([]string, error)
	Save(ctx context.Context, p *Product) error

	// DecrementStock atomically removes quantity units if the product is active and
	// at least quantity units remain. It returns the remaining stock.
	DecrementStock(ctx context.Context, id string, quantity int) (int, error)
	// IncrementStock returns quantity units to the product. Used for compensation.
	IncrementStock(ctx context.Context, id string, quantity int) error
}
