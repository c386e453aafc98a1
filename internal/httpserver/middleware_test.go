package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter() (*clientLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newClientLimiter(20, 40)
	c.now = clock.now
	return c, clock
}

func hit(c *clientLimiter, addr string) int {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/quiz", nil)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	c.middleware(ok).ServeHTTP(rec, req)
	return rec.Code
}

func TestClientLimiter_EvictsIdleClients(t *testing.T) {
	c, clock := newTestLimiter()

	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, hit(c, fmt.Sprintf("10.0.0.%d:1234", i)))
	}
	assert.Equal(t, 100, c.size())

	clock.advance(c.ttl / 2)
	hit(c, "10.0.0.1:5555") // same host, new port

	clock.advance(c.ttl/2 + time.Second)
	assert.Equal(t, 99, c.evictStale())
	assert.Equal(t, 1, c.size(), "recently seen client is kept")
}

func TestClientLimiter_CapsEntries(t *testing.T) {
	c, clock := newTestLimiter()
	c.maxEntries = 10

	for i := 0; i < 20; i++ {
		hit(c, fmt.Sprintf("10.0.1.%d:1", i))
		clock.advance(time.Second)
	}

	assert.Equal(t, 10, c.evictStale())
	assert.Equal(t, 10, c.size())
	c.mu.Lock()
	_, oldest := c.limiters["10.0.1.0"]
	_, newest := c.limiters["10.0.1.19"]
	c.mu.Unlock()
	assert.False(t, oldest)
	assert.True(t, newest)
}

func TestClientLimiter_RunStopsWithContext(t *testing.T) {
	c, _ := newTestLimiter()
	c.ttl = -time.Second // everything is stale
	hit(c, "10.0.2.1:1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.run(ctx, time.Millisecond, zerolog.Nop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.size() == 0 }, time.Second, time.Millisecond)
	cancel()
	assert.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}
