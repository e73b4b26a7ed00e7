// Package popularity derives per-product popularity scores from
// cumulative order quantities.
package popularity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/pkg/logger"
)

// DefaultScore is the popularity of a product with no order history.
const DefaultScore = 50

const countsDocID = "counts"

// Counts maps product id to the cumulative ordered quantity. Values
// only ever grow.
type Counts map[int]int

// OrderedItem is one line of a placed order, as seen by the engine.
type OrderedItem struct {
	ProductID int
	Quantity  int
}

// Score computes a product's popularity from its cumulative ordered
// quantity and the total across all products. Ordered products score
// share-of-total on top of a 50 floor, capped at 100; never-ordered
// products keep their existing score. The floor makes unordered and
// moderately-ordered products hard to tell apart; that is kept on
// purpose.
func Score(count, total, existing int) int {
	if count <= 0 || total <= 0 {
		if existing > 0 {
			return existing
		}
		return DefaultScore
	}
	boost := math.Min(50, float64(count)/float64(total)*100)
	return int(math.Round(50 + boost))
}

// Engine owns the order counts aggregate, persisting it through the
// backend chain after every recorded order.
type Engine struct {
	mu     sync.RWMutex
	store  *storage.Chain
	counts Counts
}

func NewEngine(store *storage.Chain) *Engine {
	return &Engine{store: store, counts: make(Counts)}
}

// Load restores the counts aggregate. A missing or unreachable record
// starts the engine empty; counts rebuild as orders arrive.
func (e *Engine) Load(ctx context.Context) error {
	doc, err := e.store.Get(ctx, storage.CollectionOrderCounts, countsDocID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		logger.WithContext(ctx).Warn().Err(err).Msg("order counts unavailable, starting empty")
		return nil
	}

	var counts Counts
	if err := json.Unmarshal(doc.Data, &counts); err != nil {
		return fmt.Errorf("failed to decode order counts: %w", err)
	}

	e.mu.Lock()
	e.counts = counts
	e.mu.Unlock()
	return nil
}

// Record adds each item's quantity to the aggregate and persists it.
// Calling Record twice for the same order double-counts: each call is
// taken to be one real order event, and exactly-once delivery is the
// caller's problem.
func (e *Engine) Record(ctx context.Context, items []OrderedItem) {
	e.mu.Lock()
	for _, it := range items {
		if it.Quantity > 0 {
			e.counts[it.ProductID] += it.Quantity
		}
	}
	data, err := json.Marshal(e.counts)
	e.mu.Unlock()

	if err != nil {
		logger.WithContext(ctx).Error().Err(err).Msg("failed to encode order counts")
		return
	}
	if err := e.store.Write(ctx, storage.CollectionOrderCounts, countsDocID, data); err != nil &&
		!errors.Is(err, storage.ErrDegraded) {
		logger.WithContext(ctx).Warn().Err(err).Msg("failed to persist order counts")
	}
}

// Counts returns a copy of the aggregate.
func (e *Engine) Counts() Counts {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(Counts, len(e.counts))
	for id, n := range e.counts {
		out[id] = n
	}
	return out
}

// TotalOrders is the sum of all ordered quantities.
func (e *Engine) TotalOrders() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := 0
	for _, n := range e.counts {
		total += n
	}
	return total
}
