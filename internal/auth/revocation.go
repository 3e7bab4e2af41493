package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers logged-out token ids until the tokens would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// revokedKeyPrefix namespaces revocation keys in a shared Redis.
const revokedKeyPrefix = "pickup:revoked:"

// RedisRevoker keeps revoked token ids in Redis with a TTL, so every API instance sees a logout.
type RedisRevoker struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisRevoker wraps an already connected client.
func NewRedisRevoker(rdb *redis.Client) *RedisRevoker {
	return &RedisRevoker{rdb: rdb, now: time.Now}
}

// Revoke stores tokenID until the given expiry. Tokens already past expiry need no entry.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

// IsRevoked reports whether tokenID has been revoked.
func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.rdb.Get(ctx, revokedKeyPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MemoryRevoker is the single-process fallback used when no Redis is configured.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevoker returns an empty in-process revocation list.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke records tokenID until the given expiry and drops entries that have lapsed.
func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}
	if until.After(now) {
		m.revoked[tokenID] = until
	}
	return nil
}

// IsRevoked reports whether tokenID is on the list and not yet lapsed.
func (m *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[tokenID]
	return ok && exp.After(m.now()), nil
}
