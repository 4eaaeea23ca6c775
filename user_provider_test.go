package accounts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	accounts "github.com/goliatone/go-chat-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUserProviderVerifyIdentity(t *testing.T) {
	ctx := context.Background()
	mockTracker := new(MockUserTracker)

	provider := accounts.NewUserProvider(mockTracker).WithLogger(testLogger{})

	t.Run("Successful verification", func(t *testing.T) {
		userID := uuid.New()
		passwordHash, _ := accounts.HashPassword("password123")
		user := &accounts.User{
			ID:            userID,
			Username:      "testuser",
			Email:         "test@example.com",
			PasswordHash:  passwordHash,
			LoginAttempts: 0,
		}

		mockTracker.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.NoError(t, err)
		assert.NotNil(t, identity)
		assert.Equal(t, userID.String(), identity.ID())
		assert.Equal(t, "testuser", identity.Username())
		assert.Equal(t, "test@example.com", identity.Email())

		mockTracker.AssertExpectations(t)
	})

	t.Run("Wrong password", func(t *testing.T) {
		userID := uuid.New()
		passwordHash, _ := accounts.HashPassword("correct_password")
		user := &accounts.User{
			ID:            userID,
			Username:      "testuser",
			Email:         "test@example.com",
			PasswordHash:  passwordHash,
			LoginAttempts: 0,
		}

		mockTracker.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		mockTracker.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "wrong_password")

		assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
		assert.Nil(t, identity)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Unknown identifier is indistinguishable from wrong password", func(t *testing.T) {
		mockTracker.On("GetByIdentifier", ctx, "nonexistent@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		identity, err := provider.VerifyIdentity(ctx, "nonexistent@example.com", "password123")

		assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
		assert.Nil(t, identity)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Store failure is not masked as a credential error", func(t *testing.T) {
		mockTracker.On("GetByIdentifier", ctx, "broken@example.com").
			Return(nil, errors.New("connection refused")).Once()

		identity, err := provider.VerifyIdentity(ctx, "broken@example.com", "password123")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, accounts.ErrInvalidCredentials)
		assert.Nil(t, identity)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Too many login attempts", func(t *testing.T) {
		userID := uuid.New()
		passwordHash, _ := accounts.HashPassword("password123")
		now := time.Now()
		user := &accounts.User{
			ID:             userID,
			Username:       "testuser",
			Email:          "test@example.com",
			PasswordHash:   passwordHash,
			LoginAttempts:  accounts.MaxLoginAttempts + 1,
			LoginAttemptAt: &now,
		}

		mockTracker.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.Error(t, err)
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, accounts.ErrTooManyLoginAttempts)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Login attempts cooldown expired", func(t *testing.T) {
		userID := uuid.New()
		passwordHash, _ := accounts.HashPassword("password123")
		oldAttempt := time.Now().Add(-48 * time.Hour)
		user := &accounts.User{
			ID:             userID,
			Username:       "testuser",
			Email:          "test@example.com",
			PasswordHash:   passwordHash,
			LoginAttempts:  accounts.MaxLoginAttempts + 1,
			LoginAttemptAt: &oldAttempt,
		}

		mockTracker.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, mock.MatchedBy(func(u *accounts.User) bool {
			return u.ID == userID && u.LoginAttempts == 0 // attempts reset
		})).Return(nil).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.NoError(t, err)
		assert.NotNil(t, identity)
		assert.Equal(t, userID.String(), identity.ID())

		mockTracker.AssertExpectations(t)
	})

	t.Run("Tracking failure does not block the login", func(t *testing.T) {
		userID := uuid.New()
		passwordHash, _ := accounts.HashPassword("password123")
		user := &accounts.User{
			ID:           userID,
			Username:     "testuser",
			Email:        "test@example.com",
			PasswordHash: passwordHash,
		}

		mockTracker.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, user).
			Return(errors.New("write failed")).Once()

		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.NoError(t, err)
		assert.NotNil(t, identity)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Validator rejection propagates", func(t *testing.T) {
		userID := uuid.New()
		passwordHash, _ := accounts.HashPassword("password123")
		user := &accounts.User{
			ID:           userID,
			Email:        "test@example.com",
			PasswordHash: passwordHash,
		}
		rejection := errors.New("account requires verification")

		guarded := accounts.NewUserProvider(mockTracker).WithLogger(testLogger{})
		guarded.Validator = func(u *accounts.User) error { return rejection }

		mockTracker.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		mockTracker.On("TrackSucccessfulLogin", ctx, user).Return(nil).Once()

		identity, err := guarded.VerifyIdentity(ctx, "test@example.com", "password123")

		assert.ErrorIs(t, err, rejection)
		assert.Nil(t, identity)

		mockTracker.AssertExpectations(t)
	})
}

func TestUserProviderFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()
	mockTracker := new(MockUserTracker)
	provider := accounts.NewUserProvider(mockTracker)

	t.Run("Found", func(t *testing.T) {
		userID := uuid.New()
		user := &accounts.User{
			ID:       userID,
			Username: "testuser",
			Email:    "test@example.com",
		}

		mockTracker.On("GetByIdentifier", ctx, "testuser").Return(user, nil).Once()

		identity, err := provider.FindIdentityByIdentifier(ctx, "testuser")

		assert.NoError(t, err)
		assert.Equal(t, userID.String(), identity.ID())
		assert.Equal(t, "testuser", identity.Username())

		mockTracker.AssertExpectations(t)
	})

	t.Run("Nil user maps to account not found", func(t *testing.T) {
		mockTracker.On("GetByIdentifier", ctx, "ghost").Return(nil, nil).Once()

		identity, err := provider.FindIdentityByIdentifier(ctx, "ghost")

		assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
		assert.Nil(t, identity)

		mockTracker.AssertExpectations(t)
	})

	t.Run("Lookup errors propagate", func(t *testing.T) {
		lookupErr := errors.New("boom")
		mockTracker.On("GetByIdentifier", ctx, "testuser").Return(nil, lookupErr).Once()

		identity, err := provider.FindIdentityByIdentifier(ctx, "testuser")

		assert.ErrorIs(t, err, lookupErr)
		assert.Nil(t, identity)

		mockTracker.AssertExpectations(t)
	})
}
