package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeAlreadyRegistered identifies duplicate username/email conflicts.
	TextCodeAlreadyRegistered = "ALREADY_REGISTERED"
	// TextCodeInvalidCredentials identifies failed credential verification.
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeTokenInvalid identifies any token verification failure.
	TextCodeTokenInvalid = "TOKEN_INVALID"
	// TextCodeAccountNotFound identifies lookups that missed for an
	// already-authenticated caller.
	TextCodeAccountNotFound = "ACCOUNT_NOT_FOUND"
)

// ErrAlreadyRegistered is returned when a username or email is taken. The
// message deliberately does not say which of the two collided.
var ErrAlreadyRegistered = goerrors.New("username or email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyRegistered).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is the single outcome for every credential failure:
// unknown username and wrong password are indistinguishable to the caller.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid is the single outcome for every token verification
// failure. Expired, tampered, malformed, and wrong-method tokens all
// collapse here so callers cannot probe which check tripped.
var ErrTokenInvalid = goerrors.New("invalid or expired token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountNotFound is returned for missed lookups on behalf of callers
// that already hold a valid session.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTooManyLoginAttempts is returned while an account is cooling down.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryAuth).
	WithTextCode("TOO_MANY_LOGIN_ATTEMPTS").
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrUnableToFindSession means no verified claims were stored on the request.
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode("SESSION_NOT_FOUND").
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeSession means the stored value was not verified claims.
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithTextCode("SESSION_DECODE_FAILED").
	WithCode(goerrors.CodeUnauthorized)

// IsConflict reports whether err represents a duplicate registration.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryConflict
	}

	return false
}

// IsUnauthenticated reports whether err collapses to the generic
// "unauthenticated" outcome.
func IsUnauthenticated(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryAuth
	}

	return false
}

// isUniqueViolation recognizes duplicate-key failures from the drivers the
// store runs on. The UNIQUE constraints live in the migrations; this is how
// the race window between the service pre-check and the insert closes.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value violates unique constraint") // postgres
}
