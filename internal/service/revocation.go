package service

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
)

// TokenRevoker remembers tokens that were logged out until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevoker stores revoked token ids in Redis with the token's remaining
// lifetime as TTL, so every instance sees a logout.
type RedisRevoker struct {
	client *redis.Client
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func revokedKey(jti string) string {
	return "revoked_token:" + jti
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return n > 0, nil
}

// MemoryRevoker is the single-process fallback used when Redis is not
// configured. The oldest entries are evicted once size is reached.
type MemoryRevoker struct {
	cache *lru.Cache
}

func NewMemoryRevoker(size int) (*MemoryRevoker, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating revocation cache: %w", err)
	}
	return &MemoryRevoker{cache: cache}, nil
}

func (m *MemoryRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	m.cache.Add(jti, until)
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	v, ok := m.cache.Get(jti)
	if !ok {
		return false, nil
	}
	if time.Now().After(v.(time.Time)) {
		m.cache.Remove(jti)
		return false, nil
	}
	return true, nil
}
