package models

import (
	"time"
)

// User represents an account row. The core never constructs or deletes
// accounts outside of registration; it reads the password hash for login
// and writes a replacement hash during reset.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // never sent to clients
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ResetTicket is the one live OTP ticket an account may hold. A new reset
// request overwrites the previous ticket rather than creating a second one.
type ResetTicket struct {
	ID          int64     `db:"id"`
	UserID      string    `db:"user_id"`
	OTPCode     string    `db:"otp_code"`
	RequestedAt time.Time `db:"requested_at"`
	ExpiresAt   time.Time `db:"expires_at"`
	Used        bool      `db:"used"`
}
