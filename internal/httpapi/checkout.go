package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/craftedcrochet/storefront/internal/order"
	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/pkg/logger"
)

// Checkout handles POST /api/checkout: finalizes the session's cart
// into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Customer      order.Customer `json:"customer"`
		PaymentMethod string         `json:"payment_method"`
		PaymentProof  string         `json:"payment_proof"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c := h.session(w, r)
	o, err := h.orders.Finalize(r.Context(), c, order.Checkout{
		Customer:      req.Customer,
		PaymentMethod: req.PaymentMethod,
		PaymentProof:  req.PaymentProof,
	})
	if err != nil {
		var verr *order.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, order.ErrEmptyCart):
			respondError(w, http.StatusBadRequest, "Your cart is empty")
		case errors.Is(err, storage.ErrUnavailable):
			// The cart was kept; the customer can retry.
			respondError(w, http.StatusServiceUnavailable, "Order could not be recorded, please try again")
		default:
			logger.WithContext(r.Context()).Error().Err(err).Msg("checkout failed")
			respondError(w, http.StatusInternalServerError, "Checkout failed")
		}
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Order placed successfully",
		Data:    o,
	})
}
