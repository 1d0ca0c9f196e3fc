package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/domain/payment"
)

const orderColumns = `id, number, user_id, shipping_name, shipping_phone, shipping_address, shipping_city,
	shipping_postal, subtotal, shipping_fee, total, payment_method, payment_status, payment_id, status,
	tracking_number, carrier, version, paid_at, created_at, updated_at`

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		method string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID,
		&o.Shipping.Name, &o.Shipping.Phone, &o.Shipping.Address, &o.Shipping.City, &o.Shipping.PostalCode,
		&o.Subtotal, &o.ShippingFee, &o.Total,
		&method, &o.PaymentStatus, &o.PaymentID, &o.Status,
		&o.TrackingNumber, &o.Carrier, &o.Version, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.PaymentMethod = payment.Method(method)
	return &o, nil
}

// Insert writes the order and its items in one transaction.
func (s *OrderStore) Insert(ctx context.Context, o *domain.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1, $18, $19, $20)`,
		o.ID, o.Number, o.UserID,
		o.Shipping.Name, o.Shipping.Phone, o.Shipping.Address, o.Shipping.City, o.Shipping.PostalCode,
		o.Subtotal, o.ShippingFee, o.Total,
		string(o.PaymentMethod), o.PaymentStatus, o.PaymentID, o.Status,
		o.TrackingNumber, o.Carrier, o.PaidAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			if constraint == orderNumberKey {
				return domain.ErrDuplicateNumber
			}
			return domain.ErrConflict
		}
		return fmt.Errorf("postgres: insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for i, it := range o.Items {
		batch.Queue(
			`INSERT INTO order_items (order_id, position, product_id, name, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, i, it.ProductID, it.Name, it.UnitPrice, it.Quantity,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: insert order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit order: %w", err)
	}
	o.Version = 1
	return nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get order: %w", err)
	}
	if err := s.loadItems(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, q domain.ListQuery) ([]*domain.Order, int, error) {
	status := string(q.Status)

	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE user_id = $1 AND ($2::text = '' OR status = $2)`,
		q.UserID, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: count orders: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1 AND ($2::text = '' OR status = $2)
		 ORDER BY created_at DESC, id DESC OFFSET $3 LIMIT $4`,
		q.UserID, status, q.Offset, limitOrDefault(q.Limit),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list orders: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: list orders: %w", err)
	}
	if err := s.loadItems(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update is a compare-and-set on version. Line items are immutable and are not rewritten.
func (s *OrderStore) Update(ctx context.Context, o *domain.Order) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET
		   payment_method = $3, payment_status = $4, payment_id = $5, status = $6,
		   tracking_number = $7, carrier = $8, paid_at = $9, updated_at = $10,
		   version = version + 1
		 WHERE id = $1 AND version = $2`,
		o.ID, o.Version,
		string(o.PaymentMethod), o.PaymentStatus, o.PaymentID, o.Status,
		o.TrackingNumber, o.Carrier, o.PaidAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update order: %w", err)
	}
	if tag.RowsAffected() == 1 {
		o.Version++
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: update order: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func (s *OrderStore) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT order_id, product_id, name, unit_price, quantity FROM order_items
		 WHERE order_id = ANY($1) ORDER BY order_id, position`, ids)
	if err != nil {
		return fmt.Errorf("postgres: load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			it      domain.LineItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return fmt.Errorf("postgres: scan order item: %w", err)
		}
		if o := byID[orderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}
