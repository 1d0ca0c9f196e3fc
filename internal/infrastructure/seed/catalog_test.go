package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
)

func TestCatalogSeedsOnce(t *testing.T) {
	repo := memory.NewProductRepository()

	n, err := Catalog(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, len(demoCatalog), n)

	n, err = Catalog(context.Background(), repo)
	require.NoError(t, err)
	assert.Zero(t, n)

	products, total, err := repo.List(context.Background(), catalog.ListQuery{Sort: catalog.SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, len(demoCatalog), total)
	assert.Equal(t, int64(29900), products[0].Price)

	categories, err := repo.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Apparel", "Electronics", "Home"}, categories)
}

func TestProductIDIsStable(t *testing.T) {
	assert.Equal(t, ProductID("Select Item 1"), ProductID("Select Item 1"))
	assert.NotEqual(t, ProductID("Select Item 1"), ProductID("Select Item 2"))
}
