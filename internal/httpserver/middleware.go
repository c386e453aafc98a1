package httpserver

import (
	"context"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
// Defaults to http://localhost:5173.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestIDLogField adds chi's request ID to the request logger.
func requestIDLogField(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, d time.Duration) {
	var ev *zerolog.Event
	l := hlog.FromRequest(r)
	switch {
	case status >= 500:
		ev = l.Error()
	case status >= 400:
		ev = l.Warn()
	case r.URL.Path == "/quiz/guess":
		ev = l.Debug() // one per keystroke
	default:
		ev = l.Info()
	}
	ev.Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// clientLimiter hands out one token bucket per client address. Entries not
// used for ttl are dropped by evictStale.
type clientLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*clientEntry
	rps        int
	burst      int
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type clientEntry struct {
	lim        *rate.Limiter
	lastAccess time.Time
}

const (
	defaultLimiterTTL  = 30 * time.Minute
	defaultLimiterCap  = 10000
	limiterSweepPeriod = 5 * time.Minute
)

func newClientLimiter(rps, burst int) *clientLimiter {
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = 2 * rps
	}
	return &clientLimiter{
		limiters:   make(map[string]*clientEntry),
		rps:        rps,
		burst:      burst,
		ttl:        defaultLimiterTTL,
		maxEntries: defaultLimiterCap,
		now:        time.Now,
	}
}

func (c *clientLimiter) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if e, ok := c.limiters[key]; ok {
		e.lastAccess = now
		return e.lim
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(c.rps)), c.burst)
	c.limiters[key] = &clientEntry{lim: lim, lastAccess: now}
	return lim
}

// evictStale drops limiters idle for longer than ttl. If the map is still
// above maxEntries, the least recently used half goes too.
func (c *clientLimiter) evictStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.ttl)
	removed := 0
	for key, e := range c.limiters {
		if e.lastAccess.Before(cutoff) {
			delete(c.limiters, key)
			removed++
		}
	}

	if len(c.limiters) > c.maxEntries {
		keys := lo.Keys(c.limiters)
		sort.Slice(keys, func(i, j int) bool {
			return c.limiters[keys[i]].lastAccess.Before(c.limiters[keys[j]].lastAccess)
		})
		for _, key := range keys[:len(keys)/2] {
			delete(c.limiters, key)
			removed++
		}
	}
	return removed
}

func (c *clientLimiter) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.limiters)
}

// run sweeps stale limiters every period until ctx is done.
func (c *clientLimiter) run(ctx context.Context, period time.Duration, l zerolog.Logger) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := c.evictStale(); n > 0 {
				l.Debug().Int("removed", n).Int("remaining", c.size()).Msg("cleaned up stale rate limiters")
			}
		}
	}
}

func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !c.get(key).Allow() {
			hlog.FromRequest(r).Warn().Str("client", key).Msg("rate limited")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
