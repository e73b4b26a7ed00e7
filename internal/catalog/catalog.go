// Package catalog owns the product list: loads, CRUD, search, sorting
// and popularity recomputation. All reads are served from memory; every
// mutation writes through the backend chain. For the running session
// the in-memory set is authoritative, so a backend outage degrades
// durability but never drops data.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/craftedcrochet/storefront/internal/events"
	"github.com/craftedcrochet/storefront/internal/popularity"
	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/pkg/logger"
)

type Catalog struct {
	mu       sync.RWMutex
	store    *storage.Chain
	hub      *events.Hub
	products []Product
}

func New(store *storage.Chain, hub *events.Hub) *Catalog {
	return &Catalog{store: store, hub: hub}
}

// Load fills the in-memory set from the first responsive backend (the
// chain already mirrors the winner into the local cache). When nothing
// is reachable and the cache is empty, the built-in seed list is used.
func (c *Catalog) Load(ctx context.Context) error {
	docs, err := c.store.Read(ctx, storage.CollectionProducts)
	if err != nil {
		logger.WithContext(ctx).Warn().Err(err).Msg("no backend reachable, seeding default catalog")
		c.setProducts(seedProducts())
		return nil
	}

	products := make([]Product, 0, len(docs))
	for _, doc := range docs {
		var p Product
		if err := json.Unmarshal(doc.Data, &p); err != nil {
			logger.WithContext(ctx).Warn().Err(err).Str("id", doc.ID).Msg("skipping malformed product record")
			continue
		}
		products = append(products, p)
	}

	if len(products) == 0 {
		products = seedProducts()
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	c.setProducts(products)
	return nil
}

func (c *Catalog) setProducts(products []Product) {
	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
}

// All returns a copy of the product list.
func (c *Catalog) All() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Product(nil), c.products...)
}

// ByID returns the product or ErrProductNotFound.
func (c *Catalog) ByID(id int) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

// ByCategory filters by category; "all" returns everything.
func (c *Catalog) ByCategory(category string) []Product {
	if category == "all" {
		return c.All()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Search matches the query case-insensitively against product names and
// descriptions.
func (c *Catalog) Search(query string) []Product {
	q := strings.ToLower(query)
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}

// Add validates the input, assigns the next id and writes through the
// chain. A failed write never rejects the product: it stays in memory
// (and in whatever tier accepted it) so the session never silently
// drops data.
func (c *Catalog) Add(ctx context.Context, np NewProduct) (Product, error) {
	if err := np.validate(); err != nil {
		return Product{}, err
	}

	c.mu.Lock()
	maxID := 0
	for _, p := range c.products {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	p := Product{
		ID:          maxID + 1,
		Name:        np.Name,
		Category:    np.Category,
		Description: np.Description,
		Price:       np.Price,
		Stock:       np.Stock,
		Image:       np.Image,
		Popularity:  np.Popularity,
	}
	if p.Popularity == 0 {
		p.Popularity = popularity.DefaultScore
	}
	c.products = append(c.products, p)
	c.mu.Unlock()

	c.persist(ctx, p)
	c.hub.PublishProductsChanged()
	return p, nil
}

// Update merges the patch into the existing product. The id never
// changes.
func (c *Catalog) Update(ctx context.Context, id int, patch ProductPatch) (Product, error) {
	c.mu.Lock()
	idx := -1
	for i, p := range c.products {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		c.mu.Unlock()
		return Product{}, ErrProductNotFound
	}

	updated := c.products[idx]
	if err := updated.apply(patch); err != nil {
		c.mu.Unlock()
		return Product{}, err
	}
	c.products[idx] = updated
	c.mu.Unlock()

	c.persist(ctx, updated)
	c.hub.PublishProductsChanged()
	return updated, nil
}

// Delete removes the product from memory and attempts the backend
// delete. A backend failure is logged, not fatal: memory is
// authoritative for the session.
func (c *Catalog) Delete(ctx context.Context, id int) error {
	c.mu.Lock()
	idx := -1
	for i, p := range c.products {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		c.mu.Unlock()
		return ErrProductNotFound
	}
	c.products = append(c.products[:idx], c.products[idx+1:]...)
	c.mu.Unlock()

	err := c.store.Remove(ctx, storage.CollectionProducts, strconv.Itoa(id))
	if err != nil && !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrDegraded) {
		logger.WithContext(ctx).Warn().Err(err).Int("product_id", id).Msg("backend delete failed")
	}
	c.hub.PublishProductsChanged()
	return nil
}

func (c *Catalog) persist(ctx context.Context, p Product) {
	data, err := json.Marshal(p)
	if err != nil {
		logger.WithContext(ctx).Error().Err(err).Int("product_id", p.ID).Msg("failed to encode product")
		return
	}
	err = c.store.Write(ctx, storage.CollectionProducts, strconv.Itoa(p.ID), data)
	switch {
	case errors.Is(err, storage.ErrDegraded):
		logger.WithContext(ctx).Warn().Int("product_id", p.ID).Msg("product saved to local cache only")
	case err != nil:
		logger.WithContext(ctx).Warn().Err(err).Int("product_id", p.ID).Msg("product kept in memory only")
	}
}

// RecomputePopularity rescores every product from the order counts
// aggregate and persists the changed ones.
func (c *Catalog) RecomputePopularity(ctx context.Context, counts popularity.Counts, totalOrders int) {
	if totalOrders == 0 {
		return
	}

	c.mu.Lock()
	var changed []Product
	for i := range c.products {
		score := popularity.Score(counts[c.products[i].ID], totalOrders, c.products[i].Popularity)
		if score != c.products[i].Popularity {
			c.products[i].Popularity = score
			changed = append(changed, c.products[i])
		}
	}
	c.mu.Unlock()

	for _, p := range changed {
		c.persist(ctx, p)
	}
	if len(changed) > 0 {
		c.hub.PublishProductsChanged()
	}
}

// Sorted returns a sorted copy; the input slice is never mutated.
// Recognized keys: price-low-high, price-high-low, popularity,
// alphabetical.
func Sorted(products []Product, by string) []Product {
	out := append([]Product(nil), products...)
	switch by {
	case "price-low-high":
		sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "price-high-low":
		sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case "popularity":
		sort.Slice(out, func(i, j int) bool { return out[i].Popularity > out[j].Popularity })
	case "alphabetical":
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	return out
}

// Stats summarizes the catalog for the admin dashboard.
type Stats struct {
	TotalProducts int            `json:"total_products"`
	TotalStock    int            `json:"total_stock"`
	StockValue    float64        `json:"stock_value"`
	ByCategory    map[string]int `json:"by_category"`
}

func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{ByCategory: make(map[string]int)}
	for _, p := range c.products {
		s.TotalProducts++
		s.TotalStock += p.Stock
		s.StockValue += p.Price * float64(p.Stock)
		s.ByCategory[p.Category]++
	}
	return s
}
