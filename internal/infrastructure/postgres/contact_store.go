package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/contact"
)

type ContactStore struct {
	pool *pgxpool.Pool
}

func NewContactStore(pool *pgxpool.Pool) *ContactStore {
	return &ContactStore{pool: pool}
}

func (s *ContactStore) Insert(ctx context.Context, i *domain.Inquiry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contact_inquiries (id, name, email, phone, message, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		i.ID, i.Name, i.Email, i.Phone, i.Message, i.Status, i.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert inquiry: %w", err)
	}
	return nil
}

func (s *ContactStore) List(ctx context.Context, q domain.ListQuery) ([]*domain.Inquiry, int, error) {
	status := string(q.Status)

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM contact_inquiries WHERE ($1::text = '' OR status = $1)`, status,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: count inquiries: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, phone, message, status, created_at FROM contact_inquiries
		 WHERE ($1::text = '' OR status = $1)
		 ORDER BY created_at DESC, id DESC OFFSET $2 LIMIT $3`,
		status, q.Offset, limitOrDefault(q.Limit),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: list inquiries: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Inquiry, 0)
	for rows.Next() {
		var i domain.Inquiry
		if err := rows.Scan(&i.ID, &i.Name, &i.Email, &i.Phone, &i.Message, &i.Status, &i.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("postgres: scan inquiry: %w", err)
		}
		out = append(out, &i)
	}
	return out, total, rows.Err()
}
