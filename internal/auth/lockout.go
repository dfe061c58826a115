package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/identity-service/internal/user"
)

// Lockout tracks failed authentication attempts per principal and
// enforces a temporary lock. It holds no in-memory state: every
// transition round-trips through the principal store, and the counter
// increment plus the conditional lock are applied in one atomic store
// update so concurrent failed logins cannot lose increments.
//
// The state machine per principal is
// Unlocked(attempts n) -> Locked(until) -> Unlocked(attempts 0).
// Expiry is lazy: once lock-until passes, the principal authenticates
// again, but attempts reset only on the next success.
type Lockout struct {
	store       UserStore
	maxAttempts int
	duration    time.Duration
	logger      *slog.Logger
}

func NewLockout(store UserStore, maxAttempts int, duration time.Duration, logger *slog.Logger) *Lockout {
	return &Lockout{
		store:       store,
		maxAttempts: maxAttempts,
		duration:    duration,
		logger:      logger,
	}
}

// IsLocked reports whether the lockout window is still active for the
// principal. Checking never consumes an attempt.
func (l *Lockout) IsLocked(u *user.User) bool {
	return u.IsLocked()
}

// RecordFailure registers one failed verification. When the attempt
// count reaches the maximum, the same store update sets lock-until to
// now + lockout duration.
func (l *Lockout) RecordFailure(ctx context.Context, u *user.User) error {
	lockUntil := time.Now().Add(l.duration)
	if err := l.store.RegisterFailedAttempt(ctx, u.ID, l.maxAttempts, lockUntil); err != nil {
		return err
	}
	if u.FailedAttempts+1 >= l.maxAttempts {
		l.logger.Warn("account locked after repeated failed logins",
			"user_id", u.ID, "attempts", u.FailedAttempts+1, "locked_until", lockUntil)
	}
	return nil
}

// RecordSuccess resets the counter and clears lock-until.
func (l *Lockout) RecordSuccess(ctx context.Context, u *user.User) error {
	return l.store.ResetFailedAttempts(ctx, u.ID)
}
