package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates the two credentials the issuer mints.
type TokenType = string

const (
	// TokenTypeAccess authorizes API requests.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh may only be exchanged for a new token pair. It never
	// authenticates a request.
	TokenTypeRefresh TokenType = "refresh"
)

// AuthClaims is the decoded payload of a verified token.
type AuthClaims interface {
	Subject() string
	UserID() string
	TokenType() TokenType
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID  string    `json:"uid,omitempty"`
	Type TokenType `json:"type,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// TokenType returns the type claim
func (c *JWTClaims) TokenType() TokenType {
	return c.Type
}

// IsAccess reports whether the token authorizes API requests.
func (c *JWTClaims) IsAccess() bool {
	return c.Type == TokenTypeAccess
}

// IsRefresh reports whether the token is an exchange-only credential.
func (c *JWTClaims) IsRefresh() bool {
	return c.Type == TokenTypeRefresh
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
