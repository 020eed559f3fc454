// Package session stores in-progress carts between requests.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/cart"
)

// DefaultTTL is how long an untouched cart survives before the janitor
// evicts it.
const DefaultTTL = 4 * time.Hour

type memoryEntry struct {
	cart      cart.Cart
	touchedAt time.Time
}

var _ cart.Store = (*MemoryStore)(nil)

// MemoryStore keeps carts in process memory. Suitable for a single
// instance; use the Redis store when the API runs replicated.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*memoryEntry
}

// NewMemoryStore creates a MemoryStore with the given TTL. A
// non-positive ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]*memoryEntry),
	}
}

// StartJanitor launches a goroutine that evicts expired carts until ctx
// is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.evictExpired(now)
			}
		}
	}()
}

func (s *MemoryStore) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if now.Sub(e.touchedAt) >= s.ttl {
			delete(s.entries, id)
		}
	}
}

// Get returns a copy of the stored cart.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		return nil, cart.ErrSessionNotFound
	}
	e.touchedAt = time.Now()

	c := e.cart
	c.Lines = append([]cart.Line(nil), e.cart.Lines...)
	return &c, nil
}

// Put stores a copy of the cart. Last write wins.
func (s *MemoryStore) Put(_ context.Context, sessionID string, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	stored.Lines = append([]cart.Line(nil), c.Lines...)
	s.entries[sessionID] = &memoryEntry{cart: stored, touchedAt: time.Now()}
	return nil
}

// Delete drops the session's cart. Absent sessions are a no-op.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
