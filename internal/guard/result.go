package guard

import (
	"time"

	"github.com/pokerledger/platform/internal/domain"
)

// Guard names reported in Result.Guard.
const (
	GuardRateLimiter    = "rate_limiter"
	GuardIdempotency    = "idempotency"
	GuardCircuitBreaker = "circuit_breaker"
)

// Result is the outcome of a guard check.
type Result struct {
	Allowed    bool          `json:"allowed"`
	Reason     string        `json:"reason,omitempty"`
	Guard      string        `json:"guard,omitempty"` // which guard blocked
	RetryAfter time.Duration `json:"-"`
}

// Err converts a blocked result into the matching domain error, or nil if allowed.
func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	switch r.Guard {
	case GuardRateLimiter:
		err := domain.ErrRateLimited(r.Reason)
		err.RetryAfter = r.RetryAfter
		return err
	case GuardIdempotency:
		return domain.ErrDuplicateRequest(r.Reason)
	default:
		return domain.ErrInternal(r.Reason, nil)
	}
}
