package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/craftedcrochet/storefront/internal/catalog"
	"github.com/craftedcrochet/storefront/pkg/logger"
)

// ListProducts handles GET /api/products with optional category, q and
// sort query parameters.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var products []catalog.Product

	switch {
	case r.URL.Query().Get("q") != "":
		products = h.catalog.Search(r.URL.Query().Get("q"))
	case r.URL.Query().Get("category") != "":
		products = h.catalog.ByCategory(r.URL.Query().Get("category"))
	default:
		products = h.catalog.All()
	}

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		products = catalog.Sorted(products, sortBy)
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: products})
}

// GetProduct handles GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	p, err := h.catalog.ByID(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Data: p})
}

// ListCategories handles GET /api/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, Response{Success: true, Data: catalog.Categories()})
}

// CreateProduct handles POST /api/admin/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewProduct
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.catalog.Add(r.Context(), req)
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		logger.WithContext(r.Context()).Error().Err(err).Msg("failed to create product")
		respondError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Product created successfully",
		Data:    p,
	})
}

// UpdateProduct handles PUT /api/admin/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var patch catalog.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.catalog.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Product updated successfully",
		Data:    p,
	})
}

// DeleteProduct handles DELETE /api/admin/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Product deleted successfully"})
}
