// Package events carries change notifications from the commerce core to
// external collaborators. Listeners register explicitly on a Hub owned
// by the composing layer; there is no global bus.
package events

import (
	"sync"
	"time"
)

// CartSummary is the payload of a cart change notification.
type CartSummary struct {
	SessionID  string  `json:"session_id"`
	TotalItems int     `json:"total_items"`
	Total      float64 `json:"total"`
}

// OrderLine is one purchased line inside an OrderPlaced notification.
type OrderLine struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// OrderPlaced is emitted once per finalized order.
type OrderPlaced struct {
	OrderID       string      `json:"order_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	Total         float64     `json:"total"`
	Items         []OrderLine `json:"items"`
	PlacedAt      time.Time   `json:"placed_at"`
}

// Hub fans notifications out to registered listeners. Listeners run
// synchronously in registration order; a slow listener delays the
// caller, not other sessions.
type Hub struct {
	mu              sync.RWMutex
	productsChanged []func()
	cartChanged     []func(CartSummary)
	orderPlaced     []func(OrderPlaced)
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) OnProductsChanged(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.productsChanged = append(h.productsChanged, fn)
}

func (h *Hub) OnCartChanged(fn func(CartSummary)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cartChanged = append(h.cartChanged, fn)
}

func (h *Hub) OnOrderPlaced(fn func(OrderPlaced)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.orderPlaced = append(h.orderPlaced, fn)
}

func (h *Hub) PublishProductsChanged() {
	h.mu.RLock()
	listeners := h.productsChanged
	h.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

func (h *Hub) PublishCartChanged(summary CartSummary) {
	h.mu.RLock()
	listeners := h.cartChanged
	h.mu.RUnlock()
	for _, fn := range listeners {
		fn(summary)
	}
}

func (h *Hub) PublishOrderPlaced(ev OrderPlaced) {
	h.mu.RLock()
	listeners := h.orderPlaced
	h.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
