package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrSessionNotFound is returned when no cart exists for a session ID.
var ErrSessionNotFound = errors.New("cart session not found")

// Store persists carts between requests, keyed by session ID. Writes
// are last-write-wins: the store is the single source of truth for a
// session even when two UI surfaces share it.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Put(ctx context.Context, sessionID string, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}
