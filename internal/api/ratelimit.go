package api

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiter is an IP-keyed sliding-window request throttle. It is an
// explicitly constructed component owned by the composition root, not
// ambient global state, so tests can build isolated instances.
//
// The lock only covers the read-check-update of one key and is never held
// across I/O.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rateWindow

	max    int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing max requests per window per client IP.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*rateWindow),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

// Allow records one request for the key and reports whether it is within
// the window budget.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.visitors[key]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.visitors[key] = &rateWindow{start: now, count: 1}
		return true
	}
	if w.count >= rl.max {
		return false
	}
	w.count++
	return true
}

// Middleware rejects requests over the budget with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			respondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP trusts chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
