// Package cart owns the shopping cart for one browser session. Lines
// hold denormalized product snapshots, so later catalog price edits do
// not retroactively change a cart; that trades "always current price"
// for cart integrity. Every mutation writes through the backend chain,
// and a persistence failure degrades durability without ever losing
// the in-memory lines.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/craftedcrochet/storefront/internal/catalog"
	"github.com/craftedcrochet/storefront/internal/events"
	"github.com/craftedcrochet/storefront/internal/storage"
	"github.com/craftedcrochet/storefront/pkg/logger"
)

// Line is one cart entry: a product snapshot plus a quantity. At most
// one line exists per product id.
type Line struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
}

// ErrInvalidQuantity is returned for a non-positive add quantity.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// Store holds the cart lines for one session id. Methods are safe for
// concurrent use; the lock covers memory state only. Persistence and
// change notifications run on a snapshot taken under the lock, so a
// listener may call back into the store's getters and a hung backend
// never blocks other cart operations.
type Store struct {
	mu        sync.Mutex
	chain     *storage.Chain
	hub       *events.Hub
	sessionID string
	lines     []Line
	degraded  bool
}

func NewStore(chain *storage.Chain, hub *events.Hub, sessionID string) *Store {
	return &Store{chain: chain, hub: hub, sessionID: sessionID}
}

// Load restores the persisted cart for this session. A missing record
// or unreachable backend starts the cart empty; shopping continues.
func (s *Store) Load(ctx context.Context) error {
	doc, err := s.chain.Get(ctx, storage.CollectionCarts, s.sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		logger.WithContext(ctx).Warn().Err(err).Str("session", s.sessionID).Msg("cart unavailable, starting empty")
		return nil
	}

	var lines []Line
	if err := json.Unmarshal(doc.Data, &lines); err != nil {
		return fmt.Errorf("failed to decode cart: %w", err)
	}
	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
	return nil
}

// snapshot is the state captured under the lock for persistence and
// notification after the lock is released.
type snapshot struct {
	lines      []Line
	totalItems int
	total      float64
}

func (s *Store) snapshotLocked() snapshot {
	return snapshot{
		lines:      append([]Line(nil), s.lines...),
		totalItems: s.totalItemsLocked(),
		total:      s.totalLocked(),
	}
}

// AddItem puts qty units of the product into the cart, merging into an
// existing line for the same product id.
func (s *Store) AddItem(ctx context.Context, p catalog.Product, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].ProductID == p.ID {
			s.lines[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Category:  p.Category,
			Quantity:  qty,
		})
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.flush(ctx, snap)
	return nil
}

// RemoveItem drops the line for the product id. Removing an absent
// product is a no-op, reported through the bool.
func (s *Store) RemoveItem(ctx context.Context, productID int) bool {
	s.mu.Lock()
	removed := s.removeLocked(productID)
	var snap snapshot
	if removed {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if removed {
		s.flush(ctx, snap)
	}
	return removed
}

func (s *Store) removeLocked(productID int) bool {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateQuantity sets the line quantity exactly; qty <= 0 removes the
// line, same as RemoveItem. Unknown product ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID, qty int) {
	s.mu.Lock()
	changed := false
	if qty <= 0 {
		changed = s.removeLocked(productID)
	} else {
		for i := range s.lines {
			if s.lines[i].ProductID == productID {
				s.lines[i].Quantity = qty
				changed = true
				break
			}
		}
	}
	var snap snapshot
	if changed {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if changed {
		s.flush(ctx, snap)
	}
}

// Clear empties the cart with a single persisted write.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.flush(ctx, snap)
}

// Lines returns a copy of the cart contents.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

// TotalItems is the sum of line quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalItemsLocked()
}

func (s *Store) totalItemsLocked() int {
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// Total sums price times quantity over the snapshots. It is computed
// fresh on every call, never cached.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Store) totalLocked() float64 {
	total := 0.0
	for _, l := range s.lines {
		total += l.Price * float64(l.Quantity)
	}
	return total
}

// SessionID returns the session this cart belongs to.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Degraded reports whether the last persist only reached the local
// cache (or nothing at all), meaning the cart may not survive a
// restart.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// flush persists the snapshot and notifies listeners. Runs without the
// lock; concurrent mutations each flush their own snapshot.
func (s *Store) flush(ctx context.Context, snap snapshot) {
	s.persist(ctx, snap.lines)
	s.hub.PublishCartChanged(events.CartSummary{
		SessionID:  s.sessionID,
		TotalItems: snap.totalItems,
		Total:      snap.total,
	})
}

func (s *Store) persist(ctx context.Context, lines []Line) {
	data, err := json.Marshal(lines)
	if err != nil {
		logger.WithContext(ctx).Error().Err(err).Msg("failed to encode cart")
		return
	}

	err = s.chain.Write(ctx, storage.CollectionCarts, s.sessionID, data)
	degraded := false
	switch {
	case errors.Is(err, storage.ErrDegraded):
		degraded = true
		logger.WithContext(ctx).Warn().Str("session", s.sessionID).Msg("cart saved to local cache only")
	case err != nil:
		degraded = true
		logger.WithContext(ctx).Warn().Err(err).Str("session", s.sessionID).Msg("cart kept in memory only")
	}

	s.mu.Lock()
	s.degraded = degraded
	s.mu.Unlock()
}
