package httpmiddleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-portal/internal/metrics"
)

func init() { gin.SetMode(gin.TestMode) }

func TestTokenBucketRefills(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	l := NewSimpleTokenBucket(2, 60)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(2 * time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
}

func TestRedisWindow(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2024, 1, 1, 9, 0, 10, 0, time.UTC)
	w := NewRedisWindow(client, "", 2)
	w.now = func() time.Time { return now }

	for _, want := range []bool{true, true, false} {
		ok, err := w.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}

	now = now.Add(time.Minute)
	ok, err := w.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.Close()
	_, err = w.Allow(ctx, "ip")
	assert.Error(t, err)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("down")
}

func TestRateLimitMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.POST("/limited", RateLimit(NewSimpleTokenBucket(1, 1), log), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/open", RateLimit(failingLimiter{}, log), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		return w
	}

	assert.Equal(t, http.StatusNoContent, do("/limited").Code)
	w := do("/limited")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, do("/open").Code)
}

func TestSecurityHeadersAndMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics(), SecurityHeaders())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/items/:id", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	after := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/items/:id", "200"))
	assert.Equal(t, before+1, after)
}
