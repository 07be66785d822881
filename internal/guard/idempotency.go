package guard

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Replay is the stored response of a completed request.
type Replay struct {
	Status int
	Header http.Header
	Body   []byte
}

type claim struct {
	at     time.Time
	replay *Replay // nil while the first request is still running
}

// IdempotencyGuard remembers ledger posts by idempotency key for ttl. A key is claimed
// when its first request starts and completed with that request's response, which is
// then handed back to every retry instead of running the post again.
type IdempotencyGuard struct {
	mu     sync.Mutex
	claims map[string]*claim
	ttl    time.Duration
	now    func() time.Time
}

// NewIdempotencyGuard creates a new in-memory idempotency guard.
func NewIdempotencyGuard(ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		claims: make(map[string]*claim),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Claim reserves key for the caller. It returns the stored response when the key has
// already completed, and a blocked Result while another request holds the key.
// An empty key is always allowed and never stored.
func (ig *IdempotencyGuard) Claim(_ context.Context, key string) (Result, *Replay) {
	if key == "" {
		return Result{Allowed: true}, nil
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	now := ig.now()
	ig.evictLocked(now)
	if c, ok := ig.claims[key]; ok {
		if c.replay != nil {
			return Result{Allowed: true}, c.replay
		}
		return Result{
			Allowed: false,
			Reason:  "duplicate request: a request with this idempotency key is in progress",
			Guard:   GuardIdempotency,
		}, nil
	}

	ig.claims[key] = &claim{at: now}
	return Result{Allowed: true}, nil
}

// Complete stores the response for a claimed key. Unclaimed keys are ignored.
func (ig *IdempotencyGuard) Complete(key string, replay Replay) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	if c, ok := ig.claims[key]; ok {
		c.replay = &replay
	}
}

// Release forgets key so a failed request can be retried.
func (ig *IdempotencyGuard) Release(key string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.claims, key)
}

func (ig *IdempotencyGuard) evictLocked(now time.Time) {
	for key, c := range ig.claims {
		if now.Sub(c.at) >= ig.ttl {
			delete(ig.claims, key)
		}
	}
}
