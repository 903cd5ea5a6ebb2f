package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl.now = clock.now
	return rl, clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("u1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"), "keys are independent")

	clock.advance(time.Minute)
	assert.True(t, rl.Allow("u1"), "window resets after a minute")
	assert.Equal(t, int64(1), rl.GetMetrics().Rejected)
}

func TestRejectedRequestsDoNotExtendWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 1)

	require.True(t, rl.Allow("k"))
	clock.advance(30 * time.Second)
	require.False(t, rl.Allow("k"))
	assert.Equal(t, 30, rl.RetryAfter("k"))

	clock.advance(30 * time.Second)
	assert.True(t, rl.Allow("k"))
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 5)
	rl.Allow("old")
	clock.advance(11 * time.Minute)
	rl.Allow("fresh")

	assert.Equal(t, 1, rl.cleanupStaleEntries())
	assert.Equal(t, int64(1), rl.GetMetrics().ClientCount)
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)

	h := rl.Middleware(
		func(r *http.Request) string { return r.Header.Get("X-Key") },
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Key", "a")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
	assert.Equal(t, DefaultConfig().RequestsPerMinute, rl.requestsPerMinute)
}
