package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/authcore-io/authcore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by email
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return ErrDuplicateEmail
	}
	s.users[user.Email] = user
	return nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) UpdatePasswordHash(_ context.Context, email, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = hash
	return nil
}

type fakeResetStore struct {
	mu          sync.Mutex
	tickets     map[string]*models.ResetTicket // keyed by user id
	nextID      int64
	markUsedErr error
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{tickets: make(map[string]*models.ResetTicket)}
}

func (s *fakeResetStore) Upsert(_ context.Context, ticket *models.ResetTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := *ticket
	t.ID = s.nextID
	t.Used = false
	s.tickets[ticket.UserID] = &t
	return nil
}

func (s *fakeResetStore) GetByUserAndCode(_ context.Context, userID, code string) (*models.ResetTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[userID]
	if !ok || t.OTPCode != code {
		return nil, ErrTicketNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *fakeResetStore) GetByUser(_ context.Context, userID string) (*models.ResetTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[userID]
	if !ok {
		return nil, ErrTicketNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *fakeResetStore) MarkUsed(_ context.Context, ticketID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markUsedErr != nil {
		return s.markUsedErr
	}
	for _, t := range s.tickets {
		if t.ID == ticketID {
			t.Used = true
			return nil
		}
	}
	return ErrTicketNotFound
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) SendResetCode(ctx context.Context, to, code string, expiry time.Duration) error {
	args := m.Called(ctx, to, code, expiry)
	return args.Error(0)
}

type resetFixture struct {
	users      *fakeUserStore
	tickets    *fakeResetStore
	attempts   *fakeAttemptStore
	dispatcher *mockDispatcher
	service    *ResetService
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()

	users := newFakeUserStore(&models.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$old",
	})
	tickets := newFakeResetStore()
	attempts := &fakeAttemptStore{}
	dispatcher := &mockDispatcher{}

	service := NewResetService(users, tickets, attempts, testHasher(), dispatcher, ResetConfig{
		LimitPerHour: 5,
		MinInterval:  time.Minute,
		Expiry:       10 * time.Minute,
	})

	return &resetFixture{
		users:      users,
		tickets:    tickets,
		attempts:   attempts,
		dispatcher: dispatcher,
		service:    service,
	}
}

func TestResetRequestHappyPath(t *testing.T) {
	f := newResetFixture(t)
	f.dispatcher.On("SendResetCode", mock.Anything, "alice@example.com", mock.Anything, 10*time.Minute).Return(nil)

	require.NoError(t, f.service.Request(context.Background(), "Alice@Example.com"))

	ticket, err := f.tickets.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, ticket.OTPCode, 6)
	assert.False(t, ticket.Used)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), ticket.ExpiresAt, 5*time.Second)

	f.dispatcher.AssertExpectations(t)
}

func TestResetRequestUnknownEmailWritesNothing(t *testing.T) {
	f := newResetFixture(t)

	// Same nil result as the registered case; the handler owns the
	// constant response shape.
	require.NoError(t, f.service.Request(context.Background(), "nobody@example.com"))

	assert.Empty(t, f.tickets.tickets)
	assert.Empty(t, f.attempts.records)
	f.dispatcher.AssertNotCalled(t, "SendResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResetRequestMinIntervalLimit(t *testing.T) {
	f := newResetFixture(t)
	f.dispatcher.On("SendResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.service.Request(context.Background(), "alice@example.com"))
	first, err := f.tickets.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)

	// A second request inside the minimum interval is rejected and must
	// not overwrite the pending ticket.
	err = f.service.Request(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrResetRateLimited)

	second, getErr := f.tickets.GetByUser(context.Background(), "user-1")
	require.NoError(t, getErr)
	assert.Equal(t, first.OTPCode, second.OTPCode)
}

func TestResetRequestHourlyLimit(t *testing.T) {
	f := newResetFixture(t)
	f.dispatcher.On("SendResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	base := time.Now()
	for i := 0; i < 5; i++ {
		f.service.now = func() time.Time { return base.Add(time.Duration(i) * 2 * time.Minute) }
		require.NoError(t, f.service.Request(context.Background(), "alice@example.com"))
	}

	f.service.now = func() time.Time { return base.Add(11 * time.Minute) }
	err := f.service.Request(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrResetRateLimited)
}

func TestResetRequestSurvivesDispatchFailure(t *testing.T) {
	f := newResetFixture(t)
	f.dispatcher.On("SendResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))

	// The ticket is persisted before dispatch, so the request succeeds.
	require.NoError(t, f.service.Request(context.Background(), "alice@example.com"))

	_, err := f.tickets.GetByUser(context.Background(), "user-1")
	assert.NoError(t, err)
}

func TestResetVerifyHappyPath(t *testing.T) {
	f := newResetFixture(t)
	f.dispatcher.On("SendResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.service.Request(context.Background(), "alice@example.com"))
	ticket, err := f.tickets.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)

	oldHash := f.users.users["alice@example.com"].PasswordHash
	err = f.service.Verify(context.Background(), "user-1", "alice@example.com", ticket.OTPCode, "New-Password-1!", "New-Password-1!")
	require.NoError(t, err)

	user := f.users.users["alice@example.com"]
	assert.NotEqual(t, oldHash, user.PasswordHash)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))

	consumed, err := f.tickets.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, consumed.Used)
}

func TestResetVerifyPasswordMismatch(t *testing.T) {
	f := newResetFixture(t)

	err := f.service.Verify(context.Background(), "user-1", "alice@example.com", "123456", "New-Password-1!", "Different-1!")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestResetVerifySingleUse(t *testing.T) {
	f := newResetFixture(t)
	f.dispatcher.On("SendResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.service.Request(context.Background(), "alice@example.com"))
	ticket, err := f.tickets.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)

	require.NoError(t, f.service.Verify(context.Background(), "user-1", "alice@example.com", ticket.OTPCode, "New-Password-1!", "New-Password-1!"))

	// The same OTP a second time collapses into the generic failure.
	err = f.service.Verify(context.Background(), "user-1", "alice@example.com", ticket.OTPCode, "Another-Pass-1!", "Another-Pass-1!")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestResetVerifyWrongOrExpiredCode(t *testing.T) {
	f := newResetFixture(t)
	f.dispatcher.On("SendResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.service.Request(context.Background(), "alice@example.com"))
	ticket, err := f.tickets.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)

	wrong := "000000"
	if ticket.OTPCode == wrong {
		wrong = "000001"
	}
	err = f.service.Verify(context.Background(), "user-1", "alice@example.com", wrong, "New-Password-1!", "New-Password-1!")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	// Expired ticket: same generic failure as a wrong code.
	f.service.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	err = f.service.Verify(context.Background(), "user-1", "alice@example.com", ticket.OTPCode, "New-Password-1!", "New-Password-1!")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestResetVerifyUserVanishedMidFlow(t *testing.T) {
	f := newResetFixture(t)
	f.dispatcher.On("SendResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.service.Request(context.Background(), "alice@example.com"))
	ticket, err := f.tickets.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)

	delete(f.users.users, "alice@example.com")

	err = f.service.Verify(context.Background(), "user-1", "alice@example.com", ticket.OTPCode, "New-Password-1!", "New-Password-1!")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetVerifyReportsSuccessWhenMarkUsedFails(t *testing.T) {
	f := newResetFixture(t)
	f.dispatcher.On("SendResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.service.Request(context.Background(), "alice@example.com"))
	ticket, err := f.tickets.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)

	f.tickets.markUsedErr = errors.New("store down")

	// The password is already changed, so the client still sees success.
	err = f.service.Verify(context.Background(), "user-1", "alice@example.com", ticket.OTPCode, "New-Password-1!", "New-Password-1!")
	assert.NoError(t, err)
}
