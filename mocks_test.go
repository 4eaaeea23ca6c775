package accounts_test

import (
	"context"
	"database/sql"

	accounts "github.com/goliatone/go-chat-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// TestIdentity is a simple implementation of Identity interface for testing
type TestIdentity struct {
	id       string
	username string
	email    string
}

func (t TestIdentity) ID() string       { return t.id }
func (t TestIdentity) Username() string { return t.username }
func (t TestIdentity) Email() string    { return t.email }

func newTestConfig() *accounts.BaseConfig {
	return &accounts.BaseConfig{
		SigningKey:      "test-signing-key",
		Issuer:          "test-issuer",
		Audience:        []string{"test:audience"},
		AccessTokenTTL:  30,
		RefreshTokenTTL: 7,
	}
}

// MockIdentityProvider implements accounts.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(accounts.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(accounts.Identity), args.Error(1)
}

// MockUserTracker implements accounts.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*accounts.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSucccessfulLogin(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockUsers mocks the subset of accounts.Users the tests exercise. The
// embedded interface satisfies the rest of the repository surface; calling
// an unmocked method panics, which is exactly what we want in a test.
type MockUsers struct {
	mock.Mock
	accounts.Users
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.UpdateCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, username, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, email, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, identifier, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) UpdatePresence(ctx context.Context, id uuid.UUID, status accounts.UserStatus, opts ...accounts.StatusUpdateOption) (*accounts.User, error) {
	args := m.Called(ctx, id, status, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSucccessfulLogin(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockRepositoryManager implements accounts.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Users() accounts.Users {
	args := m.Called()
	return args.Get(0).(accounts.Users)
}

// MockActivitySink implements accounts.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event accounts.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type capturingSink struct {
	events []accounts.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt accounts.ActivityEvent) error {
	c.events = append(c.events, evt)
	return nil
}
