package sqlitestore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/internal/storage/sqlitestore"
)

func newStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := sqlitestore.New(db)
	require.NoError(t, err)
	return s
}

func TestWriteGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Write(ctx, "products", "1", json.RawMessage(`{"name":"rose"}`)))

	doc, err := s.Get(ctx, "products", "1")
	require.NoError(t, err)
	assert.Equal(t, "1", doc.ID)
	assert.JSONEq(t, `{"name":"rose"}`, string(doc.Data))

	// Writes to the same id overwrite.
	require.NoError(t, s.Write(ctx, "products", "1", json.RawMessage(`{"name":"tulip"}`)))
	doc, err = s.Get(ctx, "products", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"tulip"}`, string(doc.Data))
}

func TestGetMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.Get(context.Background(), "products", "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Write(ctx, "products", "1", json.RawMessage(`{}`)))
	require.NoError(t, s.Write(ctx, "carts", "1", json.RawMessage(`{}`)))

	docs, err := s.Read(ctx, "products")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, s.Remove(ctx, "carts", "1"))
	_, err = s.Get(ctx, "products", "1")
	assert.NoError(t, err)
}

func TestReadSortsByID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Write(ctx, "orders", id, json.RawMessage(`{}`)))
	}

	docs, err := s.Read(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
	assert.Equal(t, "c", docs[2].ID)
}

func TestUpdateAndRemoveMissing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	assert.ErrorIs(t, s.Update(ctx, "products", "1", json.RawMessage(`{}`)), storage.ErrNotFound)
	assert.ErrorIs(t, s.Remove(ctx, "products", "1"), storage.ErrNotFound)
}

func TestReplaceSwapsCollection(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Write(ctx, "products", "old", json.RawMessage(`{}`)))
	require.NoError(t, s.Replace(ctx, "products", []storage.Document{
		{ID: "new-1", Data: json.RawMessage(`{}`)},
		{ID: "new-2", Data: json.RawMessage(`{}`)},
	}))

	docs, err := s.Read(ctx, "products")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	_, err = s.Get(ctx, "products", "old")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
