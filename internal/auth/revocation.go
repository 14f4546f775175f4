package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList is a deny-list of token ids consulted by the gate.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocations keeps revoked ids in process memory. Entries are pruned
// once their token would have expired anyway.
type MemoryRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocations creates an empty in-memory list.
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{entries: make(map[string]time.Time), now: time.Now}
}

// Revoke denies tokenID until the given time.
func (m *MemoryRevocations) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, id)
		}
	}
	if until.After(now) {
		m.entries[tokenID] = until
	}
	return nil
}

// Revoked reports whether tokenID is currently denied.
func (m *MemoryRevocations) Revoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[tokenID]
	return ok && exp.After(m.now()), nil
}

// RedisRevocations stores revoked ids as keys expiring with the token.
type RedisRevocations struct {
	client *redis.Client
	prefix string
}

// NewRedisRevocations builds a list on client using keys under prefix.
func NewRedisRevocations(client *redis.Client, prefix string) *RedisRevocations {
	if prefix == "" {
		prefix = "attendance:revoked:"
	}
	return &RedisRevocations{client: client, prefix: prefix}
}

// Revoke denies tokenID until the given time.
func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.prefix+tokenID, 1, ttl).Err()
}

// Revoked reports whether tokenID is currently denied.
func (r *RedisRevocations) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
