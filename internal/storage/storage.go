package storage

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names shared by every backend.
const (
	CollectionProducts    = "products"
	CollectionCarts       = "carts"
	CollectionOrders      = "orders"
	CollectionOrderCounts = "order_counts"
)

var (
	// ErrNotFound means the record id is absent from the collection.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable means the backend could not be reached or errored.
	ErrUnavailable = errors.New("storage backend unavailable")

	// ErrDegraded means only the local cache accepted the write. The
	// change is visible for the session but may not survive elsewhere.
	ErrDegraded = errors.New("write committed to local cache only")
)

// Document is one JSON record stored under an id within a collection.
type Document struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Backend is the uniform persistence contract. The storefront treats a
// durable local store, a remote document store and a spreadsheet relay
// identically through it. All operations may block on I/O and honour
// ctx cancellation where the underlying driver does.
type Backend interface {
	// Name identifies the backend in logs, metrics and spans.
	Name() string

	// Read returns every document in the collection.
	Read(ctx context.Context, collection string) ([]Document, error)

	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Write upserts a document under id.
	Write(ctx context.Context, collection, id string, data json.RawMessage) error

	// Update replaces an existing document or returns ErrNotFound.
	Update(ctx context.Context, collection, id string, data json.RawMessage) error

	// Remove deletes a document or returns ErrNotFound.
	Remove(ctx context.Context, collection, id string) error

	// Replace swaps the full contents of a collection in one shot.
	// Used for cache mirroring.
	Replace(ctx context.Context, collection string, docs []Document) error
}
