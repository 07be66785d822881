package guard

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter admits at most limit attempts per key in any sliding window.
// Login keys it by client IP.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a rate limiter with the given limit per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Check records an attempt for key unless the window is full. A blocked Result
// carries RetryAfter, the time until the oldest attempt leaves the window.
func (rl *RateLimiter) Check(_ context.Context, key string) Result {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	live := rl.liveLocked(key, now)

	if len(live) >= rl.limit {
		wait := live[0].Add(rl.window).Sub(now).Round(time.Second)
		if wait < time.Second {
			wait = time.Second
		}
		return Result{
			Allowed:    false,
			Reason:     fmt.Sprintf("too many attempts, retry in %s", wait),
			Guard:      GuardRateLimiter,
			RetryAfter: wait,
		}
	}

	rl.attempts[key] = append(live, now)
	return Result{Allowed: true}
}

// Prune drops keys with no attempt left in the window and reports how many went.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key := range rl.attempts {
		if len(rl.liveLocked(key, now)) == 0 {
			delete(rl.attempts, key)
			removed++
		}
	}
	return removed
}

// liveLocked trims expired attempts for key in place and returns the rest, oldest first.
func (rl *RateLimiter) liveLocked(key string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	entries := rl.attempts[key]
	i := 0
	for i < len(entries) && !entries[i].After(cutoff) {
		i++
	}
	live := entries[i:]
	rl.attempts[key] = live
	return live
}
