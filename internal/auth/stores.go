package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/authcore-io/authcore/internal/models"
)

// Attempt kinds recorded in the auth_attempts table. One timestamped
// attempt trail backs both the login lockout and the OTP hourly limit.
const (
	AttemptLogin = "login"
	AttemptReset = "reset"
)

// UserStore defines the account operations the core needs. Lookup is by
// email; the only write besides registration is the password hash swap
// during reset.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, email, hash string) error
}

// AttemptStore persists timestamped attempt records per account.
type AttemptStore interface {
	Record(ctx context.Context, userID, kind string, at time.Time) error
	CountSince(ctx context.Context, userID, kind string, since time.Time) (int, error)
	Clear(ctx context.Context, userID, kind string) error
}

// ResetStore persists reset tickets, at most one live ticket per account.
type ResetStore interface {
	Upsert(ctx context.Context, ticket *models.ResetTicket) error
	GetByUserAndCode(ctx context.Context, userID, code string) (*models.ResetTicket, error)
	GetByUser(ctx context.Context, userID string) (*models.ResetTicket, error)
	MarkUsed(ctx context.Context, ticketID int64) error
}

// SQLUserStore implements UserStore over database/sql. Queries use $N
// placeholders, which both lib/pq and go-sqlite3 bind positionally.
type SQLUserStore struct {
	db *sql.DB
}

// NewSQLUserStore creates a SQLUserStore
func NewSQLUserStore(db *sql.DB) *SQLUserStore {
	return &SQLUserStore{db: db}
}

// Create inserts a new account. A unique-constraint violation on email is
// reported as ErrDuplicateEmail.
func (s *SQLUserStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByEmail retrieves an account by its email
func (s *SQLUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePasswordHash replaces the stored hash. Zero affected rows means
// the account disappeared mid-flow and is reported as ErrUserNotFound.
func (s *SQLUserStore) UpdatePasswordHash(ctx context.Context, email, hash string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE email = $2`,
		hash, email,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// lib/pq reports 23505, go-sqlite3 reports "UNIQUE constraint failed".
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// SQLAttemptStore implements AttemptStore over the auth_attempts table.
type SQLAttemptStore struct {
	db *sql.DB
}

// NewSQLAttemptStore creates a SQLAttemptStore
func NewSQLAttemptStore(db *sql.DB) *SQLAttemptStore {
	return &SQLAttemptStore{db: db}
}

// Record inserts one attempt record
func (s *SQLAttemptStore) Record(ctx context.Context, userID, kind string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_attempts (user_id, kind, attempted_at) VALUES ($1, $2, $3)`,
		userID, kind, at,
	)
	return err
}

// CountSince counts attempt records newer than the given instant
func (s *SQLAttemptStore) CountSince(ctx context.Context, userID, kind string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auth_attempts WHERE user_id = $1 AND kind = $2 AND attempted_at > $3`,
		userID, kind, since,
	).Scan(&count)
	return count, err
}

// Clear deletes all attempt records of one kind for an account
func (s *SQLAttemptStore) Clear(ctx context.Context, userID, kind string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM auth_attempts WHERE user_id = $1 AND kind = $2`,
		userID, kind,
	)
	return err
}

// SQLResetStore implements ResetStore over the password_resets table.
type SQLResetStore struct {
	db *sql.DB
}

// NewSQLResetStore creates a SQLResetStore
func NewSQLResetStore(db *sql.DB) *SQLResetStore {
	return &SQLResetStore{db: db}
}

// Upsert writes the account's single ticket. The conflict clause keeps the
// one-ticket-per-account invariant atomic; a read-then-write sequence would
// lose one of two concurrent requests.
func (s *SQLResetStore) Upsert(ctx context.Context, ticket *models.ResetTicket) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO password_resets (user_id, otp_code, requested_at, expires_at, used)
		VALUES ($1, $2, $3, $4, FALSE)
		ON CONFLICT (user_id) DO UPDATE SET
			otp_code = excluded.otp_code,
			requested_at = excluded.requested_at,
			expires_at = excluded.expires_at,
			used = FALSE`,
		ticket.UserID, ticket.OTPCode, ticket.RequestedAt, ticket.ExpiresAt,
	)
	return err
}

// GetByUserAndCode retrieves the ticket matching an account and OTP code
func (s *SQLResetStore) GetByUserAndCode(ctx context.Context, userID, code string) (*models.ResetTicket, error) {
	return s.get(ctx,
		`SELECT id, user_id, otp_code, requested_at, expires_at, used
		FROM password_resets WHERE user_id = $1 AND otp_code = $2`,
		userID, code,
	)
}

// GetByUser retrieves the account's ticket regardless of code
func (s *SQLResetStore) GetByUser(ctx context.Context, userID string) (*models.ResetTicket, error) {
	return s.get(ctx,
		`SELECT id, user_id, otp_code, requested_at, expires_at, used
		FROM password_resets WHERE user_id = $1`,
		userID,
	)
}

func (s *SQLResetStore) get(ctx context.Context, query string, args ...interface{}) (*models.ResetTicket, error) {
	var t models.ResetTicket
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&t.ID, &t.UserID, &t.OTPCode, &t.RequestedAt, &t.ExpiresAt, &t.Used)
	if err == sql.ErrNoRows {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkUsed consumes a ticket. Tickets are never deleted; the used row stays
// as an audit trail.
func (s *SQLResetStore) MarkUsed(ctx context.Context, ticketID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE password_resets SET used = TRUE WHERE id = $1`,
		ticketID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTicketNotFound
	}
	return nil
}
