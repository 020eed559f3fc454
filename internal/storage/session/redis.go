package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	redis "github.com/redis/go-redis/v9"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/cart"
)

var _ cart.Store = (*RedisStore)(nil)

// RedisStore keeps carts in Redis so sessions survive restarts and can
// be shared across API replicas. Carts are serialized as JSON under a
// per-session key with a TTL refreshed on every write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis at addr. A non-positive ttl falls
// back to DefaultTTL.
func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func sessionKey(sessionID string) string {
	return "cart:" + sessionID
}

// Get returns the stored cart for the session.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	val, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	var c cart.Cart
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return &c, nil
}

// Put stores the cart and refreshes its TTL. Last write wins.
func (s *RedisStore) Put(ctx context.Context, sessionID string, c *cart.Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), payload, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "set cart")
	}
	return nil
}

// Delete drops the session's cart.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}
