package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/internal/storage/memstore"
)

// downBackend fails every operation, standing in for an unreachable
// remote store.
type downBackend struct{}

func (downBackend) Name() string { return "down" }

func (downBackend) Read(context.Context, string) ([]storage.Document, error) {
	return nil, errors.New("connection refused")
}

func (downBackend) Get(context.Context, string, string) (storage.Document, error) {
	return storage.Document{}, errors.New("connection refused")
}

func (downBackend) Write(context.Context, string, string, json.RawMessage) error {
	return errors.New("connection refused")
}

func (downBackend) Update(context.Context, string, string, json.RawMessage) error {
	return errors.New("connection refused")
}

func (downBackend) Remove(context.Context, string, string) error {
	return errors.New("connection refused")
}

func (downBackend) Replace(context.Context, string, []storage.Document) error {
	return errors.New("connection refused")
}

func TestChainReadPrefersFirstResponsiveBackend(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	secondary := memstore.New()
	cache := memstore.New()

	require.NoError(t, primary.Write(ctx, "products", "1", json.RawMessage(`{"id":1}`)))
	require.NoError(t, secondary.Write(ctx, "products", "2", json.RawMessage(`{"id":2}`)))

	chain := storage.NewChain(cache, primary, secondary)
	docs, err := chain.Read(ctx, "products")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "1", docs[0].ID)
}

func TestChainReadFallsThroughToSecondary(t *testing.T) {
	ctx := context.Background()
	secondary := memstore.New()
	cache := memstore.New()

	require.NoError(t, secondary.Write(ctx, "products", "2", json.RawMessage(`{"id":2}`)))

	chain := storage.NewChain(cache, downBackend{}, secondary)
	docs, err := chain.Read(ctx, "products")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "2", docs[0].ID)
}

func TestChainReadMirrorsIntoCache(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	cache := memstore.New()

	require.NoError(t, primary.Write(ctx, "products", "1", json.RawMessage(`{"id":1}`)))

	chain := storage.NewChain(cache, primary)
	_, err := chain.Read(ctx, "products")
	require.NoError(t, err)

	mirrored, err := cache.Read(ctx, "products")
	require.NoError(t, err)
	require.Len(t, mirrored, 1)
	assert.Equal(t, "1", mirrored[0].ID)
}

func TestChainReadServesCacheWhenAllBackendsDown(t *testing.T) {
	ctx := context.Background()
	cache := memstore.New()
	require.NoError(t, cache.Write(ctx, "products", "7", json.RawMessage(`{"id":7}`)))

	chain := storage.NewChain(cache, downBackend{}, downBackend{})
	docs, err := chain.Read(ctx, "products")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "7", docs[0].ID)
}

func TestChainWriteMirrorsToCache(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	cache := memstore.New()

	chain := storage.NewChain(cache, primary)
	require.NoError(t, chain.Write(ctx, "products", "1", json.RawMessage(`{"id":1}`)))

	got, err := cache.Get(ctx, "products", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(got.Data))
}

func TestChainWriteDegradesToCacheOnly(t *testing.T) {
	ctx := context.Background()
	cache := memstore.New()

	chain := storage.NewChain(cache, downBackend{})
	err := chain.Write(ctx, "products", "1", json.RawMessage(`{"id":1}`))
	require.ErrorIs(t, err, storage.ErrDegraded)

	got, err := cache.Get(ctx, "products", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(got.Data))
}

func TestChainWriteUnavailableWhenEverythingDown(t *testing.T) {
	ctx := context.Background()

	chain := storage.NewChain(downBackend{}, downBackend{})
	err := chain.Write(ctx, "products", "1", json.RawMessage(`{"id":1}`))
	require.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestChainGetNotFound(t *testing.T) {
	ctx := context.Background()

	chain := storage.NewChain(memstore.New(), memstore.New())
	_, err := chain.Get(ctx, "products", "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChainRemovePropagatesNotFound(t *testing.T) {
	ctx := context.Background()

	chain := storage.NewChain(memstore.New(), memstore.New())
	err := chain.Remove(ctx, "products", "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestChainRemoveDeletesFromCacheToo(t *testing.T) {
	ctx := context.Background()
	primary := memstore.New()
	cache := memstore.New()

	chain := storage.NewChain(cache, primary)
	require.NoError(t, chain.Write(ctx, "products", "1", json.RawMessage(`{"id":1}`)))
	require.NoError(t, chain.Remove(ctx, "products", "1"))

	_, err := cache.Get(ctx, "products", "1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = primary.Get(ctx, "products", "1")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
