// Package httpapi exposes the commerce core over HTTP. It owns no
// business rules: handlers translate requests into service calls and
// service errors into status codes.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/craftedcrochet/storefront/internal/admin"
	"github.com/craftedcrochet/storefront/internal/cart"
	"github.com/craftedcrochet/storefront/internal/catalog"
	"github.com/craftedcrochet/storefront/internal/order"
	"github.com/craftedcrochet/storefront/internal/storage"
)

type Handler struct {
	catalog *catalog.Catalog
	carts   *cart.Manager
	orders  *order.Recorder
	admin   *admin.Service
	limiter *RateLimiter

	// local caches the installation's session id for clients that send
	// no session header.
	local storage.Backend
}

func NewHandler(cat *catalog.Catalog, carts *cart.Manager, orders *order.Recorder, adm *admin.Service, limiter *RateLimiter, local storage.Backend) *Handler {
	return &Handler{catalog: cat, carts: carts, orders: orders, admin: adm, limiter: limiter, local: local}
}

// RegisterRoutes attaches every storefront endpoint to the router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Public storefront
	router.HandleFunc("/api/products", h.ListProducts).Methods(http.MethodGet)
	router.HandleFunc("/api/products/{id}", h.GetProduct).Methods(http.MethodGet)
	router.HandleFunc("/api/categories", h.ListCategories).Methods(http.MethodGet)

	router.HandleFunc("/api/cart", h.GetCart).Methods(http.MethodGet)
	router.HandleFunc("/api/cart", h.ClearCart).Methods(http.MethodDelete)
	router.HandleFunc("/api/cart/items", h.AddToCart).Methods(http.MethodPost)
	router.HandleFunc("/api/cart/items", h.UpdateCartItem).Methods(http.MethodPut)
	router.HandleFunc("/api/cart/items", h.RemoveFromCart).Methods(http.MethodDelete)

	router.HandleFunc("/api/checkout", h.limiter.Middleware(h.Checkout)).Methods(http.MethodPost)

	// Admin panel
	router.HandleFunc("/api/admin/login", h.AdminLogin).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/orders", AdminMiddleware(h.ListOrders)).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/orders/{id}/status", AdminMiddleware(h.UpdateOrderStatus)).Methods(http.MethodPatch)
	router.HandleFunc("/api/admin/stats", AdminMiddleware(h.AdminStats)).Methods(http.MethodGet)
	router.HandleFunc("/api/admin/products", AdminMiddleware(h.CreateProduct)).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/products/{id}", AdminMiddleware(h.UpdateProduct)).Methods(http.MethodPut)
	router.HandleFunc("/api/admin/products/{id}", AdminMiddleware(h.DeleteProduct)).Methods(http.MethodDelete)

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, Response{Success: true, Message: "ok"})
	}).Methods(http.MethodGet)
}
