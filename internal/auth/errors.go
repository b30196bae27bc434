package auth

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrResetRateLimited   = errors.New("reset request rate limited")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrTicketNotFound     = errors.New("reset ticket not found")
)
