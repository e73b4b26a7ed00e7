package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/craftedcrochet/storefront/internal/cart"
)

const sessionHeader = "X-Session-ID"

// session resolves the cart session id from the request. A client that
// sends no header gets the installation's locally cached id, so the
// same cart survives across requests and restarts. The id is echoed
// back so the client can keep it.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *cart.Store {
	sid := r.Header.Get(sessionHeader)
	if sid == "" {
		sid = cart.SessionID(r.Context(), h.local)
	}
	w.Header().Set(sessionHeader, sid)
	return h.carts.Get(r.Context(), sid)
}

type cartView struct {
	SessionID  string      `json:"session_id"`
	Items      []cart.Line `json:"items"`
	TotalItems int         `json:"total_items"`
	Total      float64     `json:"total"`
}

func viewOf(c *cart.Store) cartView {
	return cartView{
		SessionID:  c.SessionID(),
		Items:      c.Lines(),
		TotalItems: c.TotalItems(),
		Total:      c.Total(),
	}
}

// GetCart handles GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	respondJSON(w, http.StatusOK, Response{Success: true, Data: viewOf(c), Degraded: c.Degraded()})
}

// AddToCart handles POST /api/cart/items.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int `json:"product_id"`
		Quantity  int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, err := h.catalog.ByID(req.ProductID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	c := h.session(w, r)
	if err := c.AddItem(r.Context(), p, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to add item")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success:  true,
		Message:  p.Name + " added to cart",
		Data:     viewOf(c),
		Degraded: c.Degraded(),
	})
}

// UpdateCartItem handles PUT /api/cart/items. Quantity zero removes
// the line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int `json:"product_id"`
		Quantity  int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c := h.session(w, r)
	c.UpdateQuantity(r.Context(), req.ProductID, req.Quantity)
	respondJSON(w, http.StatusOK, Response{Success: true, Data: viewOf(c), Degraded: c.Degraded()})
}

// RemoveFromCart handles DELETE /api/cart/items. Removing an absent
// item succeeds with a different message, not an error.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c := h.session(w, r)
	message := "Item removed from cart"
	if !c.RemoveItem(r.Context(), req.ProductID) {
		message = "Item was not in cart"
	}
	respondJSON(w, http.StatusOK, Response{
		Success:  true,
		Message:  message,
		Data:     viewOf(c),
		Degraded: c.Degraded(),
	})
}

// ClearCart handles DELETE /api/cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	c.Clear(r.Context())
	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Cart cleared", Data: viewOf(c)})
}
