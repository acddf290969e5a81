// Package middleware holds HTTP middleware shared by the API routes.
package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter applies a token bucket per client key. Chat turns are
// expensive (an embedding call plus a generation stream), so the limits
// are far below typical API defaults.
type RateLimiter struct {
	interval time.Duration
	burst    int

	mu     sync.Mutex
	limits map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter granting one request per interval
// with the given burst, per key.
func NewRateLimiter(interval time.Duration, burst int) *RateLimiter {
	if interval <= 0 {
		interval = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		interval: interval,
		burst:    burst,
		limits:   make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(rl.interval), rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow reports whether the key may make a request now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait blocks until the key may make a request or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}
