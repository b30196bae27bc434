package auth

import (
	"context"
	"log"
	"time"
)

// LoginGuard tracks failed login attempts per account and enforces a
// lockout window. Open until the count of failures inside the trailing
// window reaches the threshold, then locked until the window slides past
// the qualifying records or a successful login resets it.
type LoginGuard struct {
	attempts    AttemptStore
	maxAttempts int
	window      time.Duration

	now func() time.Time
}

// NewLoginGuard creates a LoginGuard over the given attempt store.
func NewLoginGuard(attempts AttemptStore, maxAttempts int, window time.Duration) *LoginGuard {
	return &LoginGuard{
		attempts:    attempts,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// RecordFailure inserts a failed-login record. Best effort: a guard write
// failure is logged and must not block returning "invalid credentials".
func (g *LoginGuard) RecordFailure(ctx context.Context, userID string) {
	if err := g.attempts.Record(ctx, userID, AttemptLogin, g.now()); err != nil {
		log.Printf("login guard: failed to record attempt for user %s: %v", userID, err)
	}
}

// IsLocked reports whether the account has reached the failure threshold
// inside the lockout window.
func (g *LoginGuard) IsLocked(ctx context.Context, userID string) (bool, error) {
	count, err := g.attempts.CountSince(ctx, userID, AttemptLogin, g.now().Add(-g.window))
	if err != nil {
		return false, err
	}
	return count >= g.maxAttempts, nil
}

// Reset deletes the account's failed-login records. Called only after a
// verified-correct password; best effort like RecordFailure.
func (g *LoginGuard) Reset(ctx context.Context, userID string) {
	if err := g.attempts.Clear(ctx, userID, AttemptLogin); err != nil {
		log.Printf("login guard: failed to reset attempts for user %s: %v", userID, err)
	}
}
