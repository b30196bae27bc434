package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/authcore-io/authcore/internal/mail"
	"github.com/authcore-io/authcore/internal/models"
)

// ResetConfig holds the reset-protocol rate-limit parameters.
type ResetConfig struct {
	LimitPerHour int
	MinInterval  time.Duration
	Expiry       time.Duration
}

// ResetService runs the OTP password-recovery protocol: it generates,
// stores, rate-limits, delivers and consumes one-time codes.
type ResetService struct {
	users      UserStore
	tickets    ResetStore
	attempts   AttemptStore
	hasher     *Hasher
	dispatcher mail.Dispatcher
	cfg        ResetConfig

	now func() time.Time
}

// NewResetService creates a ResetService.
func NewResetService(users UserStore, tickets ResetStore, attempts AttemptStore, hasher *Hasher, dispatcher mail.Dispatcher, cfg ResetConfig) *ResetService {
	return &ResetService{
		users:      users,
		tickets:    tickets,
		attempts:   attempts,
		hasher:     hasher,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Request issues a reset ticket for the account behind email and mails the
// code. An unknown email returns nil without any store write: the handler
// sends the same generic response either way, so existence never leaks
// through the payload. Rate limits surface as ErrResetRateLimited.
func (s *ResetService) Request(ctx context.Context, email string) error {
	email = strings.ToLower(SanitizeInput(email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := s.now()

	count, err := s.attempts.CountSince(ctx, user.ID, AttemptReset, now.Add(-time.Hour))
	if err != nil {
		return err
	}
	if count >= s.cfg.LimitPerHour {
		return ErrResetRateLimited
	}

	ticket, err := s.tickets.GetByUser(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrTicketNotFound) {
		return err
	}
	if ticket != nil && now.Sub(ticket.RequestedAt) < s.cfg.MinInterval {
		return ErrResetRateLimited
	}

	code, err := GenerateOTP()
	if err != nil {
		return err
	}

	if err := s.tickets.Upsert(ctx, &models.ResetTicket{
		UserID:      user.ID,
		OTPCode:     code,
		RequestedAt: now,
		ExpiresAt:   now.Add(s.cfg.Expiry),
	}); err != nil {
		return err
	}

	// Best effort, like the login guard: the ticket is the state change.
	if err := s.attempts.Record(ctx, user.ID, AttemptReset, now); err != nil {
		log.Printf("reset: failed to record request attempt for user %s: %v", user.ID, err)
	}

	// The ticket is already persisted; an undelivered email is a transient
	// issue the user can retry after the minimum interval.
	if err := s.dispatcher.SendResetCode(ctx, email, code, s.cfg.Expiry); err != nil {
		log.Printf("reset: failed to dispatch code email for user %s: %v", user.ID, err)
	}

	return nil
}

// Verify consumes a ticket and replaces the account's password hash.
// No-match, already-used and expired all collapse into ErrInvalidOTP so the
// response never reveals which check failed.
func (s *ResetService) Verify(ctx context.Context, userID, email, otp, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	ticket, err := s.tickets.GetByUserAndCode(ctx, userID, otp)
	if errors.Is(err, ErrTicketNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return err
	}
	if ticket.Used || !s.now().Before(ticket.ExpiresAt) {
		return ErrInvalidOTP
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePasswordHash(ctx, strings.ToLower(SanitizeInput(email)), hash); err != nil {
		return err // ErrUserNotFound when the account vanished mid-flow
	}

	// The password is already changed, so the client sees success even if
	// consuming the ticket fails. A stale unused ticket is a hygiene gap,
	// not a client-visible failure; log loudly and move on.
	if err := s.tickets.MarkUsed(ctx, ticket.ID); err != nil {
		log.Printf("reset: SECURITY: password updated for user %s but ticket %d could not be marked used: %v", userID, ticket.ID, err)
	}

	return nil
}
