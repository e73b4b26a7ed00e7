// Package admin backs the operator panel: authentication, order
// management and dashboard statistics.
package admin

import (
	"context"
	"errors"

	"github.com/craftedcrochet/storefront/internal/catalog"
	"github.com/craftedcrochet/storefront/internal/order"
	"github.com/craftedcrochet/storefront/pkg/auth"
)

// ErrInvalidCredentials is returned for a failed login. The cause
// (unknown user vs wrong password) is deliberately not distinguished.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	username     string
	passwordHash string
	catalog      *catalog.Catalog
	orders       *order.Recorder
}

// New wires the admin service. passwordHash must be a bcrypt hash; a
// plaintext compare is not an option here.
func New(username, passwordHash string, cat *catalog.Catalog, orders *order.Recorder) *Service {
	return &Service{
		username:     username,
		passwordHash: passwordHash,
		catalog:      cat,
		orders:       orders,
	}
}

// Login verifies the operator credentials and issues a JWT.
func (s *Service) Login(username, password string) (string, error) {
	if username != s.username || s.passwordHash == "" {
		return "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(s.passwordHash, password) {
		return "", ErrInvalidCredentials
	}
	return auth.GenerateToken(username, "admin")
}

// Orders lists every order, newest first.
func (s *Service) Orders(ctx context.Context) ([]order.Order, error) {
	return s.orders.List(ctx)
}

// SetOrderStatus patches an order's status.
func (s *Service) SetOrderStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	return s.orders.UpdateStatus(ctx, id, status)
}

// DashboardStats is the admin landing page summary.
type DashboardStats struct {
	Catalog       catalog.Stats `json:"catalog"`
	TotalOrders   int           `json:"total_orders"`
	PendingOrders int           `json:"pending_orders"`
	Revenue       float64       `json:"revenue"`
}

// Stats aggregates catalog and order figures for the dashboard.
func (s *Service) Stats(ctx context.Context) (DashboardStats, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{Catalog: s.catalog.Stats(), TotalOrders: len(orders)}
	for _, o := range orders {
		stats.Revenue += o.Total
		if o.Status == order.StatusPending {
			stats.PendingOrders++
		}
	}
	return stats, nil
}
