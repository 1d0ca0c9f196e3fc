package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/storefront/internal/domain/contact"
)

type ContactRepository struct {
	mu        sync.RWMutex
	inquiries map[string]*domain.Inquiry
}

func NewContactRepository() *ContactRepository {
	return &ContactRepository{inquiries: make(map[string]*domain.Inquiry)}
}

func (r *ContactRepository) Insert(ctx context.Context, i *domain.Inquiry) error {
	_ = ctx
	if i == nil || i.ID == "" {
		return fmt.Errorf("contact repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.inquiries[i.ID] = i.Clone()
	return nil
}

func (r *ContactRepository) List(ctx context.Context, q domain.ListQuery) ([]*domain.Inquiry, int, error) {
	_ = ctx

	r.mu.RLock()
	matched := make([]*domain.Inquiry, 0, len(r.inquiries))
	for _, i := range r.inquiries {
		if q.Status != "" && i.Status != q.Status {
			continue
		}
		matched = append(matched, i.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(a, b int) bool {
		if !matched[a].CreatedAt.Equal(matched[b].CreatedAt) {
			return matched[a].CreatedAt.After(matched[b].CreatedAt)
		}
		return matched[a].ID > matched[b].ID
	})
	return paginate(matched, q.Offset, q.Limit), len(matched), nil
}
