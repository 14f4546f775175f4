package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMemoryRevocations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemoryRevocations()
	m.now = fixedClock(now)

	require.NoError(t, m.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, m.Revoke(ctx, "stale", now.Add(-time.Minute)))

	ok, err := m.Revoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = m.Revoked(ctx, "stale")
	assert.False(t, ok)

	m.now = fixedClock(now.Add(2 * time.Minute))
	ok, _ = m.Revoked(ctx, "a")
	assert.False(t, ok)
}

func TestRedisRevocations(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := NewRedisRevocations(client, "")
	require.NoError(t, r.Revoke(ctx, "tok-1", time.Now().Add(10*time.Minute)))

	ok, err := r.Revoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Revoked(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(11 * time.Minute)
	ok, err = r.Revoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3cret!")
	require.NoError(t, err)

	ok, err := h.Check(hash, "s3cret!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Check(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Check("not-a-hash", "s3cret!")
	assert.Error(t, err)
}
