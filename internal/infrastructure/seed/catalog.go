package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
)

type product struct {
	name        string
	description string
	price       int64
	category    string
	stock       int
	added       string
}

var demoCatalog = []product{
	{"Select Item 1", "Carefully chosen, built to last", 29900, "Electronics", 100, "2024-01-15"},
	{"Select Item 2", "Modern design with a quality guarantee", 59900, "Electronics", 50, "2024-01-20"},
	{"Select Item 3", "A classic that never dates", 89900, "Electronics", 30, "2024-02-01"},
	{"Select Item 4", "New technology for everyday use", 129900, "Home", 80, "2024-02-10"},
	{"Select Item 5", "Comfort for the whole household", 39900, "Home", 60, "2024-02-15"},
	{"Select Item 6", "Fine craftsmanship", 69900, "Home", 40, "2024-02-20"},
	{"Select Item 7", "On-trend and personal", 49900, "Apparel", 90, "2024-03-01"},
	{"Select Item 8", "Soft, durable materials", 79900, "Apparel", 70, "2024-03-05"},
	{"Select Item 9", "Timeless styling", 99900, "Apparel", 25, "2024-03-10"},
}

// ProductID derives a stable id from the product name so reseeding never duplicates rows.
func ProductID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("storefront/product/"+name)).String()
}

// Catalog stores the demo products when the catalog is empty. It returns how many were added.
func Catalog(ctx context.Context, repo catalog.Repository) (int, error) {
	_, total, err := repo.List(ctx, catalog.ListQuery{Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("seed: inspect catalog: %w", err)
	}
	if total > 0 {
		return 0, nil
	}

	for _, d := range demoCatalog {
		p, err := catalog.NewProduct(ProductID(d.name), d.name, d.description, d.category, d.price, d.stock)
		if err != nil {
			return 0, fmt.Errorf("seed: %s: %w", d.name, err)
		}
		if added, perr := time.Parse(time.DateOnly, d.added); perr == nil {
			p.DateAdded = added
		}
		if err := repo.Save(ctx, p); err != nil {
			return 0, fmt.Errorf("seed: save %s: %w", d.name, err)
		}
	}
	return len(demoCatalog), nil
}
