package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/craftedcrochet/storefront/internal/cart"
)

// Status is the admin-driven order state. The expected progression is
// pending -> confirmed -> dispatched, but any status string is accepted
// on update; there is no transition validation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusDispatched Status = "dispatched"
)

// PaymentProofNotProvided marks an order placed without a payment
// proof reference.
const PaymentProofNotProvided = "not provided"

// Customer is the checkout form. All four contact fields are required.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes,omitempty"`
}

// Order is an immutable record of one checkout. Items and total are
// frozen at order time; later catalog edits never change them.
type Order struct {
	ID            string      `json:"id"`
	Customer      Customer    `json:"customer"`
	Items         []cart.Line `json:"items"`
	Total         float64     `json:"total"`
	PaymentMethod string      `json:"payment_method"`
	PaymentProof  string      `json:"payment_proof"`
	Status        Status      `json:"status"`
	Date          string      `json:"date"`
	Timestamp     time.Time   `json:"timestamp"`
}

var (
	// ErrEmptyCart rejects checkout with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOrderNotFound is returned when an order id is absent.
	ErrOrderNotFound = errors.New("order not found")
)

// ValidationError describes a rejected checkout form.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %s is required", e.Field)
}

func (c Customer) validate() error {
	for _, f := range []struct {
		name, value string
	}{
		{"name", c.Name},
		{"email", c.Email},
		{"phone", c.Phone},
		{"address", c.Address},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name}
		}
	}
	return nil
}
