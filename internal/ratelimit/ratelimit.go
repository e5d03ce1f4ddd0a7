// Package ratelimit is the admission gate in front of the protocol
// dispatcher. Each client address gets a lazily-allocated token bucket;
// buckets live in an LRU so the address map stays bounded no matter how
// many distinct clients show up.
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/alucardeht/ghflow-mcp/internal/logger"
	"github.com/alucardeht/ghflow-mcp/pkg/protocol"
)

var log = logger.ForComponent("ratelimit")

// fallbackAddr is used when no client address can be resolved at all.
const fallbackAddr = "127.0.0.1"

type Limiter struct {
	perMinute int
	buckets   *lru.Cache[string, *rate.Limiter]
	mu        sync.Mutex
}

// NewLimiter builds a limiter admitting perMinute requests per client
// address, tracking at most maxClients addresses.
func NewLimiter(perMinute, maxClients int) (*Limiter, error) {
	if perMinute < 1 {
		perMinute = 1
	}
	if maxClients < 1 {
		maxClients = 1
	}

	buckets, err := lru.New[string, *rate.Limiter](maxClients)
	if err != nil {
		return nil, err
	}

	return &Limiter{
		perMinute: perMinute,
		buckets:   buckets,
	}, nil
}

// Allow consumes one token from the bucket for addr, creating the bucket
// on first sight. The bucket refills at the configured per-minute rate
// with a burst equal to the full minute's quota.
func (l *Limiter) Allow(addr string) bool {
	l.mu.Lock()
	bucket, ok := l.buckets.Get(addr)
	if !ok {
		bucket = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute)
		l.buckets.Add(addr, bucket)
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// ClientAddr resolves the originating address of a request. Forwarding
// headers are trusted as-is; this is an accounting key, not a security
// boundary.
func ClientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return fallbackAddr
}

// Middleware rejects over-limit requests with HTTP 429 before the
// dispatcher ever sees them.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := ClientAddr(r)
		if !l.Allow(addr) {
			log.Warn("rate limit exceeded", "addr", addr)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			resp := protocol.Error(nil, protocol.RateLimitError, "Rate limit exceeded", nil)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		next.ServeHTTP(w, r)
	})
}
