package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Product is one catalog entry. Stock 0 means made to order, not sold
// out.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image"`
	Popularity  int     `json:"popularity"`
}

// NewProduct carries the fields accepted on creation. The id is always
// assigned by the catalog.
type NewProduct struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image"`
	Popularity  int     `json:"popularity"`
}

// ProductPatch names exactly the mutable fields. A nil field is left
// untouched; the id can never change.
type ProductPatch struct {
	Name        *string  `json:"name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	Image       *string  `json:"image,omitempty"`
}

// ErrProductNotFound is returned when a product id is absent.
var ErrProductNotFound = errors.New("product not found")

// ValidationError describes rejected product input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product: %s %s", e.Field, e.Reason)
}

func (np NewProduct) validate() error {
	if strings.TrimSpace(np.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(np.Category) == "" {
		return &ValidationError{Field: "category", Reason: "is required"}
	}
	if np.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if np.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "cannot be negative"}
	}
	return nil
}

func (p *Product) apply(patch ProductPatch) error {
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return &ValidationError{Field: "name", Reason: "cannot be empty"}
		}
		p.Name = *patch.Name
	}
	if patch.Category != nil {
		if strings.TrimSpace(*patch.Category) == "" {
			return &ValidationError{Field: "category", Reason: "cannot be empty"}
		}
		p.Category = *patch.Category
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return &ValidationError{Field: "price", Reason: "must be positive"}
		}
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return &ValidationError{Field: "stock", Reason: "cannot be negative"}
		}
		p.Stock = *patch.Stock
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	return nil
}
