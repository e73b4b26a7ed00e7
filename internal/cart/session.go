package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/craftedcrochet/storefront/internal/events"
	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/pkg/logger"
)

const (
	sessionCollection = "session"
	sessionDocID      = "current"
)

// SessionID returns the session identifier cached in the local backend,
// generating and storing a fresh one on first use. Carts persist under
// this id across restarts of the same installation.
func SessionID(ctx context.Context, local storage.Backend) string {
	doc, err := local.Get(ctx, sessionCollection, sessionDocID)
	if err == nil {
		var id string
		if json.Unmarshal(doc.Data, &id) == nil && id != "" {
			return id
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		logger.WithContext(ctx).Warn().Err(err).Msg("session lookup failed, generating fresh id")
	}

	id := "session-" + uuid.NewString()
	data, _ := json.Marshal(id)
	if err := local.Write(ctx, sessionCollection, sessionDocID, data); err != nil {
		logger.WithContext(ctx).Warn().Err(err).Msg("failed to cache session id")
	}
	return id
}

// Manager hands out one Store per session id, keeping stores alive so
// in-memory carts survive backend outages for the whole session.
type Manager struct {
	mu     sync.Mutex
	chain  *storage.Chain
	hub    *events.Hub
	stores map[string]*Store
}

func NewManager(chain *storage.Chain, hub *events.Hub) *Manager {
	return &Manager{chain: chain, hub: hub, stores: make(map[string]*Store)}
}

// Get returns the cart store for the session, loading persisted lines
// the first time the session is seen.
func (m *Manager) Get(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok {
		return s
	}
	s := NewStore(m.chain, m.hub, sessionID)
	if err := s.Load(ctx); err != nil {
		logger.WithContext(ctx).Warn().Err(err).Str("session", sessionID).Msg("cart load failed, starting empty")
	}
	m.stores[sessionID] = s
	return s
}
