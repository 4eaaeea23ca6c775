package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// UserTracker is a store we can use to retrieve users
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSucccessfulLogin(ctx context.Context, user *User) error
}

// UserProvider handles users
type UserProvider struct {
	store     UserTracker
	Validator func(*User) error
	logger    Logger
}

// MaxLoginAttempts is the maximun number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = 24 * time.Hour

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserTracker) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

func (u *UserProvider) validate(user *User) error {
	if u.Validator != nil {
		return u.Validator(user)
	}
	return nil
}

// VerifyIdentity will find the user, compare to the password, and return the
// identity. Unknown identifier and wrong password both surface as
// ErrInvalidCredentials so callers cannot tell which accounts exist; the
// not-found path still runs a bcrypt compare to keep the timing profile flat.
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			dummyCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		dummyCompare(password)
		return nil, ErrInvalidCredentials
	}

	if user.LoginAttemptAt != nil {
		if IsOutsideThresholdPeriod(time.Now(), *user.LoginAttemptAt, CoolDownPeriod) {
			user.LoginAttempts = 0
		}
	}

	//if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		// We have to increment the login_attempts counter and login_attempt_at
		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrInvalidCredentials
	}

	// reset the login_attempts counter and login_attempt_at
	if err := u.store.TrackSucccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login: %v", err)
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return NewIdentityFromUser(user), nil
}

func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrAccountNotFound
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return NewIdentityFromUser(user), nil
}

type authIdentity struct {
	id       string
	username string
	email    string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

var _ Identity = authIdentity{}
