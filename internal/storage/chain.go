package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/craftedcrochet/storefront/pkg/logger"
)

// Chain tries an ordered list of backends until one succeeds and keeps a
// local cache backend mirrored on every successful read and write. It is
// the single place fallback logic lives; the catalog, cart and order
// services all persist through a Chain and never talk to backends
// directly.
type Chain struct {
	backends []Backend
	cache    Backend
}

// NewChain builds a chain over backends in priority order. cache is the
// always-present local store consulted last on reads and mirrored on
// writes.
func NewChain(cache Backend, backends ...Backend) *Chain {
	return &Chain{backends: backends, cache: cache}
}

// Read returns the collection from the first responsive backend,
// mirroring the result into the cache. If every backend fails the cache
// copy is served; only when that is also missing does Read fail with
// ErrUnavailable.
func (c *Chain) Read(ctx context.Context, collection string) ([]Document, error) {
	var lastErr error
	for _, b := range c.backends {
		docs, err := b.Read(ctx, collection)
		if err != nil {
			lastErr = err
			logger.WithContext(ctx).Warn().
				Err(err).
				Str("backend", b.Name()).
				Str("collection", collection).
				Msg("backend read failed, trying next")
			continue
		}
		if mirrorErr := c.cache.Replace(ctx, collection, docs); mirrorErr != nil {
			logger.WithContext(ctx).Warn().
				Err(mirrorErr).
				Str("collection", collection).
				Msg("cache mirror failed")
		}
		return docs, nil
	}

	docs, err := c.cache.Read(ctx, collection)
	if err != nil {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: all backends failed, last: %v", ErrUnavailable, lastErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	logger.WithContext(ctx).Warn().
		Str("collection", collection).
		Msg("serving collection from local cache")
	return docs, nil
}

// Get returns one document, falling back through the chain to the cache.
func (c *Chain) Get(ctx context.Context, collection, id string) (Document, error) {
	var lastErr error
	for _, b := range c.backends {
		doc, err := b.Get(ctx, collection, id)
		if err == nil {
			if mirrorErr := c.cache.Write(ctx, collection, id, doc.Data); mirrorErr != nil {
				logger.WithContext(ctx).Warn().
					Err(mirrorErr).
					Str("collection", collection).
					Msg("cache mirror failed")
			}
			return doc, nil
		}
		if errors.Is(err, ErrNotFound) {
			return Document{}, ErrNotFound
		}
		lastErr = err
	}

	doc, err := c.cache.Get(ctx, collection, id)
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, ErrNotFound) && lastErr == nil {
		return Document{}, ErrNotFound
	}
	if lastErr != nil {
		return Document{}, fmt.Errorf("%w: all backends failed, last: %v", ErrUnavailable, lastErr)
	}
	return Document{}, err
}

// Write upserts through the first accepting backend and mirrors to the
// cache. If no backend accepts but the cache does, the write survives
// the session only and ErrDegraded is returned so callers can surface
// the weaker durability instead of losing the data.
func (c *Chain) Write(ctx context.Context, collection, id string, data json.RawMessage) error {
	var lastErr error
	for _, b := range c.backends {
		if err := b.Write(ctx, collection, id, data); err != nil {
			lastErr = err
			logger.WithContext(ctx).Warn().
				Err(err).
				Str("backend", b.Name()).
				Str("collection", collection).
				Msg("backend write failed, trying next")
			continue
		}
		if mirrorErr := c.cache.Write(ctx, collection, id, data); mirrorErr != nil {
			logger.WithContext(ctx).Warn().
				Err(mirrorErr).
				Str("collection", collection).
				Msg("cache mirror failed")
		}
		return nil
	}

	if err := c.cache.Write(ctx, collection, id, data); err != nil {
		if lastErr != nil {
			return fmt.Errorf("%w: all backends failed, last: %v", ErrUnavailable, lastErr)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ErrDegraded
}

// Remove deletes through the first accepting backend and from the cache.
// A cache miss on the mirror delete is not an error.
func (c *Chain) Remove(ctx context.Context, collection, id string) error {
	var lastErr error
	var notFound bool
	for _, b := range c.backends {
		err := b.Remove(ctx, collection, id)
		if err == nil {
			c.removeFromCache(ctx, collection, id)
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			notFound = true
			continue
		}
		lastErr = err
	}

	if err := c.cache.Remove(ctx, collection, id); err == nil {
		if lastErr != nil {
			return ErrDegraded
		}
		return nil
	}
	if notFound && lastErr == nil {
		return ErrNotFound
	}
	if lastErr != nil {
		return fmt.Errorf("%w: all backends failed, last: %v", ErrUnavailable, lastErr)
	}
	return ErrNotFound
}

func (c *Chain) removeFromCache(ctx context.Context, collection, id string) {
	if err := c.cache.Remove(ctx, collection, id); err != nil && !errors.Is(err, ErrNotFound) {
		logger.WithContext(ctx).Warn().
			Err(err).
			Str("collection", collection).
			Msg("cache delete failed")
	}
}
