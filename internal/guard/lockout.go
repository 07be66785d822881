package guard

import (
	"context"
	"log/slog"
	"time"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/repository"
)

const (
	MaxAttempts   = 5
	LockoutWindow = 15 * time.Minute
)

// Lockout blocks a username after repeated failed logins. Unknown usernames are
// tracked the same way as real ones.
type Lockout struct {
	db          repository.DBTX
	attempts    repository.LoginAttemptRepository
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
}

// NewLockout creates a lockout guard with the default thresholds.
func NewLockout(db repository.DBTX, attempts repository.LoginAttemptRepository, logger *slog.Logger) *Lockout {
	return &Lockout{
		db:          db,
		attempts:    attempts,
		maxAttempts: MaxAttempts,
		window:      LockoutWindow,
		logger:      logger,
	}
}

// RecordAttempt inserts a login attempt row. Failures are logged, not returned.
func (l *Lockout) RecordAttempt(ctx context.Context, username, ip string, success bool) {
	if err := l.attempts.Record(ctx, l.db, username, ip, success); err != nil {
		l.logger.Warn("record login attempt failed", "username", username, "error", err)
	}
}

// CheckLocked returns ErrAccountLocked if the account has >= MaxAttempts failed
// logins within the lockout window.
func (l *Lockout) CheckLocked(ctx context.Context, username string) error {
	count, err := l.attempts.CountFailuresSince(ctx, l.db, username, time.Now().Add(-l.window))
	if err != nil {
		// fail open on DB error
		l.logger.Warn("lockout check failed", "username", username, "error", err)
		return nil
	}
	if count >= l.maxAttempts {
		return domain.ErrAccountLocked("too many failed login attempts, try again later")
	}
	return nil
}
