package httpmiddleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SimpleTokenBucket is an in-memory per-key token bucket.
type SimpleTokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
	now      func() time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewSimpleTokenBucket creates limiter with capacity tokens and rate per minute.
func NewSimpleTokenBucket(capacity, perMinute int) *SimpleTokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &SimpleTokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
		now:      time.Now,
	}
}

func (l *SimpleTokenBucket) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return l.capacity > 0, nil
	}
	refill := int(now.Sub(b.last).Minutes() * float64(l.rate))
	if refill > 0 {
		b.tokens = min(b.tokens+refill, l.capacity)
		b.last = now
	}
	if b.tokens <= 0 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// RedisWindow is a fixed one-minute window counter shared by every replica.
type RedisWindow struct {
	client *redis.Client
	prefix string
	limit  int
	now    func() time.Time
}

// NewRedisWindow allows perMinute requests per key per clock minute.
func NewRedisWindow(client *redis.Client, prefix string, perMinute int) *RedisWindow {
	if prefix == "" {
		prefix = "attendance:ratelimit:"
	}
	return &RedisWindow{client: client, prefix: prefix, limit: perMinute, now: time.Now}
}

func (w *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	window := w.now().Unix() / 60
	k := w.prefix + key + ":" + strconv.FormatInt(window, 10)

	pipe := w.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("httpmiddleware.RedisWindow: %w", err)
	}
	return incr.Val() <= int64(w.limit), nil
}

// RateLimit enforces l per client IP. A limiter error lets the request
// through so a cache outage does not take down login.
func RateLimit(l Limiter, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ok, err := l.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Warn("rate limiter unavailable", slog.String("op", "httpmiddleware.RateLimit"), slog.Any("error", err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
