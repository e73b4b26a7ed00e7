package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/craftedcrochet/storefront/internal/order"
	"github.com/craftedcrochet/storefront/pkg/logger"
)

// AdminLogin handles POST /api/admin/login.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.admin.Login(req.Username, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]string{"token": token},
	})
}

// ListOrders handles GET /api/admin/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.admin.Orders(r.Context())
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Msg("failed to list orders")
		respondError(w, http.StatusServiceUnavailable, "Orders unavailable")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: orders})
}

// UpdateOrderStatus handles PATCH /api/admin/orders/{id}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.admin.SetOrderStatus(r.Context(), mux.Vars(r)["id"], order.Status(req.Status))
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		respondError(w, http.StatusServiceUnavailable, "Failed to update order")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Order status updated",
		Data:    o,
	})
}

// AdminStats handles GET /api/admin/stats.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "Stats unavailable")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: stats})
}
