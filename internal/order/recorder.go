// Package order finalizes carts into immutable order records and keeps
// the admin-facing order list.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/craftedcrochet/storefront/internal/cart"
	"github.com/craftedcrochet/storefront/internal/events"
	"github.com/craftedcrochet/storefront/internal/popularity"
	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/pkg/logger"
)

// Checkout carries the optional checkout extras beside the customer
// form.
type Checkout struct {
	Customer      Customer
	PaymentMethod string
	PaymentProof  string
}

type Recorder struct {
	store  *storage.Chain
	hub    *events.Hub
	engine *popularity.Engine
}

func NewRecorder(store *storage.Chain, hub *events.Hub, engine *popularity.Engine) *Recorder {
	return &Recorder{store: store, hub: hub, engine: engine}
}

// Finalize turns the cart into an order record: validate, freeze
// snapshots and total, persist through the chain, count the order for
// popularity, notify listeners, then clear the cart. The cart is
// cleared only after the record reached at least one backend; if every
// write fails the customer keeps the cart and can retry.
func (r *Recorder) Finalize(ctx context.Context, c *cart.Store, co Checkout) (Order, error) {
	if err := co.Customer.validate(); err != nil {
		return Order{}, err
	}

	items := c.Lines()
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}

	now := time.Now()
	o := Order{
		ID:            newOrderID(now),
		Customer:      co.Customer,
		Items:         items,
		Total:         c.Total(),
		PaymentMethod: co.PaymentMethod,
		PaymentProof:  co.PaymentProof,
		Status:        StatusPending,
		Date:          now.Format("2006-01-02"),
		Timestamp:     now,
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = "bank transfer"
	}
	if o.PaymentProof == "" {
		o.PaymentProof = PaymentProofNotProvided
	}

	data, err := json.Marshal(o)
	if err != nil {
		return Order{}, fmt.Errorf("failed to encode order: %w", err)
	}

	err = r.store.Write(ctx, storage.CollectionOrders, o.ID, data)
	switch {
	case errors.Is(err, storage.ErrDegraded):
		logger.WithContext(ctx).Warn().Str("order_id", o.ID).Msg("order saved to local cache only")
	case err != nil:
		return Order{}, fmt.Errorf("order not recorded: %w", err)
	}

	counted := make([]popularity.OrderedItem, 0, len(items))
	for _, it := range items {
		counted = append(counted, popularity.OrderedItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	r.engine.Record(ctx, counted)

	r.hub.PublishOrderPlaced(toEvent(o))
	c.Clear(ctx)

	logger.WithContext(ctx).Info().
		Str("order_id", o.ID).
		Float64("total", o.Total).
		Int("items", len(o.Items)).
		Msg("order placed")
	return o, nil
}

// UpdateStatus patches an order's status. Any status string is
// accepted.
func (r *Recorder) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	doc, err := r.store.Get(ctx, storage.CollectionOrders, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}

	var o Order
	if err := json.Unmarshal(doc.Data, &o); err != nil {
		return Order{}, fmt.Errorf("failed to decode order %s: %w", id, err)
	}
	o.Status = status

	data, err := json.Marshal(o)
	if err != nil {
		return Order{}, fmt.Errorf("failed to encode order %s: %w", id, err)
	}
	if err := r.store.Write(ctx, storage.CollectionOrders, id, data); err != nil &&
		!errors.Is(err, storage.ErrDegraded) {
		return Order{}, err
	}
	return o, nil
}

// Get returns one order by id.
func (r *Recorder) Get(ctx context.Context, id string) (Order, error) {
	doc, err := r.store.Get(ctx, storage.CollectionOrders, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	var o Order
	if err := json.Unmarshal(doc.Data, &o); err != nil {
		return Order{}, fmt.Errorf("failed to decode order %s: %w", id, err)
	}
	return o, nil
}

// List returns all orders, newest first.
func (r *Recorder) List(ctx context.Context) ([]Order, error) {
	docs, err := r.store.Read(ctx, storage.CollectionOrders)
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(docs))
	for _, doc := range docs {
		var o Order
		if err := json.Unmarshal(doc.Data, &o); err != nil {
			logger.WithContext(ctx).Warn().Err(err).Str("id", doc.ID).Msg("skipping malformed order record")
			continue
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Timestamp.After(orders[j].Timestamp) })
	return orders, nil
}

// newOrderID derives an id from the current time with a random suffix.
// The collision window is theoretical but real; ids are not
// deduplicated on collision.
func newOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%03d", now.UnixMilli(), rand.Intn(1000))
}

func toEvent(o Order) events.OrderPlaced {
	lines := make([]events.OrderLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, events.OrderLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return events.OrderPlaced{
		OrderID:       o.ID,
		CustomerName:  o.Customer.Name,
		CustomerEmail: o.Customer.Email,
		Total:         o.Total,
		Items:         lines,
		PlacedAt:      o.Timestamp,
	}
}
