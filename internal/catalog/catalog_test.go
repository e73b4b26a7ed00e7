package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftedcrochet/storefront/internal/catalog"
	"github.com/craftedcrochet/storefront/internal/events"
	"github.com/craftedcrochet/storefront/internal/popularity"
	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/internal/storage/memstore"
)

func newCatalog(t *testing.T) (*catalog.Catalog, *storage.Chain) {
	t.Helper()
	chain := storage.NewChain(memstore.New(), memstore.New())
	return catalog.New(chain, events.NewHub()), chain
}

func TestLoadFallsBackToSeed(t *testing.T) {
	cat, _ := newCatalog(t)
	require.NoError(t, cat.Load(context.Background()))

	products := cat.All()
	require.NotEmpty(t, products)
	for _, p := range products {
		assert.NotEmpty(t, p.Name)
		assert.Positive(t, p.Price)
	}
}

func TestAddAssignsNextID(t *testing.T) {
	ctx := context.Background()
	cat, chain := newCatalog(t)
	require.NoError(t, cat.Load(ctx))
	before := len(cat.All())

	p, err := cat.Add(ctx, catalog.NewProduct{
		Name:     "Peony Bouquet",
		Category: "bouquets",
		Price:    3500,
		Stock:    2,
	})
	require.NoError(t, err)

	maxID := 0
	for _, existing := range cat.All() {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	assert.Equal(t, maxID, p.ID)
	assert.Len(t, cat.All(), before+1)
	assert.Equal(t, popularity.DefaultScore, p.Popularity)

	// The new product must be written through the chain.
	_, err = chain.Get(ctx, storage.CollectionProducts, "8")
	assert.NoError(t, err)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	cat, _ := newCatalog(t)
	require.NoError(t, cat.Load(ctx))

	tests := []struct {
		name  string
		input catalog.NewProduct
		field string
	}{
		{"missing name", catalog.NewProduct{Category: "flowers", Price: 100}, "name"},
		{"missing category", catalog.NewProduct{Name: "Rose", Price: 100}, "category"},
		{"zero price", catalog.NewProduct{Name: "Rose", Category: "flowers"}, "price"},
		{"negative stock", catalog.NewProduct{Name: "Rose", Category: "flowers", Price: 100, Stock: -1}, "stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cat.Add(ctx, tt.input)
			var verr *catalog.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	cat, _ := newCatalog(t)
	require.NoError(t, cat.Load(ctx))

	original, err := cat.ByID(1)
	require.NoError(t, err)

	price := 1200.0
	updated, err := cat.Update(ctx, 1, catalog.ProductPatch{Price: &price})
	require.NoError(t, err)

	assert.Equal(t, 1, updated.ID)
	assert.Equal(t, 1200.0, updated.Price)
	assert.Equal(t, original.Name, updated.Name)
	assert.Equal(t, original.Stock, updated.Stock)
}

func TestUpdateRejectsEmptyName(t *testing.T) {
	ctx := context.Background()
	cat, _ := newCatalog(t)
	require.NoError(t, cat.Load(ctx))

	empty := "  "
	_, err := cat.Update(ctx, 1, catalog.ProductPatch{Name: &empty})
	var verr *catalog.ValidationError
	require.ErrorAs(t, err, &verr)

	// The failed patch must not partially apply.
	p, err := cat.ByID(1)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Name)
}

func TestUpdateUnknownID(t *testing.T) {
	cat, _ := newCatalog(t)
	require.NoError(t, cat.Load(context.Background()))

	_, err := cat.Update(context.Background(), 999, catalog.ProductPatch{})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	cat, _ := newCatalog(t)
	require.NoError(t, cat.Load(ctx))
	before := len(cat.All())

	require.NoError(t, cat.Delete(ctx, 1))
	assert.Len(t, cat.All(), before-1)
	_, err := cat.ByID(1)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	assert.ErrorIs(t, cat.Delete(ctx, 1), catalog.ErrProductNotFound)
	assert.Len(t, cat.All(), before-1)
}

func TestByCategory(t *testing.T) {
	cat, _ := newCatalog(t)
	require.NoError(t, cat.Load(context.Background()))

	all := cat.ByCategory("all")
	assert.Len(t, all, len(cat.All()))

	bouquets := cat.ByCategory("bouquets")
	require.NotEmpty(t, bouquets)
	for _, p := range bouquets {
		assert.Equal(t, "bouquets", p.Category)
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	cat, _ := newCatalog(t)
	require.NoError(t, cat.Load(context.Background()))

	hits := cat.Search("SUNFLOWER")
	require.NotEmpty(t, hits)
	assert.Equal(t, cat.Search("sunflower"), hits)

	assert.Empty(t, cat.Search("no such product"))
}

func TestSortedDoesNotMutateInput(t *testing.T) {
	products := []catalog.Product{
		{ID: 1, Name: "B", Price: 300, Popularity: 10},
		{ID: 2, Name: "A", Price: 100, Popularity: 90},
		{ID: 3, Name: "C", Price: 200, Popularity: 50},
	}
	orig := append([]catalog.Product(nil), products...)

	byPrice := catalog.Sorted(products, "price-low-high")
	assert.Equal(t, []int{2, 3, 1}, ids(byPrice))

	byPriceDesc := catalog.Sorted(products, "price-high-low")
	assert.Equal(t, []int{1, 3, 2}, ids(byPriceDesc))

	byPopularity := catalog.Sorted(products, "popularity")
	assert.Equal(t, []int{2, 3, 1}, ids(byPopularity))

	alphabetical := catalog.Sorted(products, "alphabetical")
	assert.Equal(t, []int{2, 1, 3}, ids(alphabetical))

	unknown := catalog.Sorted(products, "nonsense")
	assert.Equal(t, ids(orig), ids(unknown))

	assert.Equal(t, orig, products)
}

func ids(products []catalog.Product) []int {
	out := make([]int, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestRecomputePopularity(t *testing.T) {
	ctx := context.Background()
	cat, _ := newCatalog(t)
	require.NoError(t, cat.Load(ctx))

	// 3 of 4 ordered units for product 1, 1 of 4 for product 2.
	cat.RecomputePopularity(ctx, popularity.Counts{1: 3, 2: 1}, 4)

	p1, err := cat.ByID(1)
	require.NoError(t, err)
	assert.Equal(t, 100, p1.Popularity)

	p2, err := cat.ByID(2)
	require.NoError(t, err)
	assert.Equal(t, 75, p2.Popularity)

	// Never-ordered products keep their seeded score.
	p3, err := cat.ByID(3)
	require.NoError(t, err)
	assert.Equal(t, 75, p3.Popularity)
}

func TestLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	chain := storage.NewChain(memstore.New(), memstore.New())

	first := catalog.New(chain, events.NewHub())
	require.NoError(t, first.Load(ctx))
	added, err := first.Add(ctx, catalog.NewProduct{
		Name:     "Lily Keychain",
		Category: "keychains",
		Price:    600,
		Stock:    5,
	})
	require.NoError(t, err)

	second := catalog.New(chain, events.NewHub())
	require.NoError(t, second.Load(ctx))
	got, err := second.ByID(added.ID)
	require.NoError(t, err)
	assert.Equal(t, added, got)
}

func TestStats(t *testing.T) {
	cat, _ := newCatalog(t)
	require.NoError(t, cat.Load(context.Background()))

	s := cat.Stats()
	assert.Equal(t, len(cat.All()), s.TotalProducts)
	assert.NotEmpty(t, s.ByCategory)

	total := 0
	for _, n := range s.ByCategory {
		total += n
	}
	assert.Equal(t, s.TotalProducts, total)
}
