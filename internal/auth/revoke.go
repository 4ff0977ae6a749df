package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Revoker records token ids that were logged out before they expired.
// A zero until keeps the revocation forever.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const revokeSweepInterval = 10 * time.Minute

// MemoryRevoker is a process-local Revoker.
type MemoryRevoker struct {
	mu        sync.Mutex
	revoked   map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryRevoker creates an empty MemoryRevoker.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke marks tokenID as revoked until the given time.
func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	if !until.IsZero() && !now.Before(until) {
		return nil
	}
	m.revoked[tokenID] = until
	return nil
}

// IsRevoked reports whether tokenID is currently revoked.
func (m *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	until, ok := m.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !until.IsZero() && !now.Before(until) {
		delete(m.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

// sweep drops lapsed entries at most once per revokeSweepInterval.
// The caller holds m.mu.
func (m *MemoryRevoker) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < revokeSweepInterval {
		return
	}
	for id, until := range m.revoked {
		if !until.IsZero() && !now.Before(until) {
			delete(m.revoked, id)
		}
	}
	m.lastSweep = now
}

const revokedKeyPrefix = "revoked:"

// RedisRevoker stores revocations in Redis so they are shared across
// server instances.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker connects to the Redis server at url.
func NewRedisRevoker(ctx context.Context, url string) (*RedisRevoker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisRevoker{client: client}, nil
}

// Revoke stores tokenID with a TTL ending at until. A zero until stores it
// without a TTL.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	var ttl time.Duration
	if !until.IsZero() {
		ttl = time.Until(until)
		if ttl <= 0 {
			return nil
		}
	}
	return r.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether tokenID has a live revocation entry.
func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the Redis connection.
func (r *RedisRevoker) Close() error {
	return r.client.Close()
}
