package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
)

const productColumns = `id, name, description, price, category, stock, is_active, date_added, created_at, updated_at`

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &p.IsActive, &p.DateAdded, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get product: %w", err)
	}
	return p, nil
}

var productOrder = map[domain.Sort]string{
	domain.SortPriceAsc:  "price ASC, id ASC",
	domain.SortPriceDesc: "price DESC, id ASC",
	domain.SortDateAsc:   "date_added ASC, id ASC",
	domain.SortDateDesc:  "date_added DESC, id ASC",
}

func (s *ProductStore) List(ctx context.Context, q domain.ListQuery) ([]*domain.Product, int, error) {
	order, ok := productOrder[q.Sort]
	if !ok {
		order = productOrder[domain.SortDateDesc]
	}

	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE is_active AND ($1::text = '' OR category = $1)`,
		q.Category,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: count products: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE is_active AND ($1::text = '' OR category = $1)
		 ORDER BY `+order+` OFFSET $2 LIMIT $3`,
		q.Category, q.Offset, limitOrDefault(q.Limit),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list products: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *ProductStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT category FROM products WHERE is_active AND category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("postgres: categories: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: categories: %w", err)
	}
	return out, nil
}

func (s *ProductStore) Save(ctx context.Context, p *domain.Product) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, description = EXCLUDED.description, price = EXCLUDED.price,
		   category = EXCLUDED.category, stock = EXCLUDED.stock, is_active = EXCLUDED.is_active,
		   updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Stock, p.IsActive, p.DateAdded, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save product: %w", err)
	}
	return nil
}

// DecrementStock is a single conditional UPDATE; concurrent callers cannot oversell.
func (s *ProductStore) DecrementStock(ctx context.Context, id string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	var remaining int
	err := s.pool.QueryRow(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now()
		 WHERE id = $1 AND is_active AND stock >= $2
		 RETURNING stock`,
		id, quantity,
	).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("postgres: decrement stock: %w", err)
	}

	// Nothing matched: work out which condition failed.
	var (
		active bool
		stock  int
	)
	err = s.pool.QueryRow(ctx, `SELECT is_active, stock FROM products WHERE id = $1`, id).Scan(&active, &stock)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return 0, domain.ErrNotFound
	case err != nil:
		return 0, fmt.Errorf("postgres: decrement stock: %w", err)
	case !active:
		return stock, domain.ErrInactive
	default:
		return stock, domain.ErrInsufficientStock
	}
}

func (s *ProductStore) IncrementStock(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`, id, quantity)
	if err != nil {
		return fmt.Errorf("postgres: increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
