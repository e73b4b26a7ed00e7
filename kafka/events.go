package kafka

import "time"

// OrderPlacedEvent is the wire form of an order notification consumed
// by the admin dashboard refresher and analytics.
type OrderPlacedEvent struct {
	EventID       string           `json:"event_id"`
	EventType     string           `json:"event_type"`
	OrderID       string           `json:"order_id"`
	CustomerName  string           `json:"customer_name"`
	CustomerEmail string           `json:"customer_email"`
	Total         float64          `json:"total"`
	Items         []OrderEventItem `json:"items"`
	Timestamp     time.Time        `json:"timestamp"`
}

type OrderEventItem struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

const (
	EventTypeOrderPlaced = "order.placed"

	TopicOrderPlaced = "order-placed"
)
