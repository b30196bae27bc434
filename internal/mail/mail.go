// Package mail delivers one-time codes to account email addresses.
package mail

import (
	"context"
	"log"
	"time"
)

// Dispatcher sends a password-reset code to an address. Implementations
// must be safe for concurrent use.
type Dispatcher interface {
	SendResetCode(ctx context.Context, to, code string, expiry time.Duration) error
}

// LogDispatcher writes the code to the process log instead of sending it.
// Used in development and tests.
type LogDispatcher struct{}

// NewLogDispatcher creates a LogDispatcher
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

// SendResetCode logs the code and always succeeds
func (d *LogDispatcher) SendResetCode(ctx context.Context, to, code string, expiry time.Duration) error {
	log.Printf("[MAIL] reset code for %s: %s (valid %d minutes)", to, code, int(expiry.Minutes()))
	return nil
}
