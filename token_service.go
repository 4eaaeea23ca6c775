package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService mints and verifies the access/refresh pair.
type TokenService interface {
	IssueAccess(identity Identity) (string, time.Time, error)
	IssueRefresh(identity Identity) (string, time.Time, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey    []byte
	signingMethod string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      jwt.ClaimStrings
	logger        Logger
	now           func() time.Time
}

// NewTokenService creates a new TokenService from the supplied configuration.
// Access tokens live for cfg.GetAccessTokenTTL() minutes, refresh tokens for
// cfg.GetRefreshTokenTTL() days.
func NewTokenService(cfg Config, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}

	return &TokenServiceImpl{
		signingKey:    []byte(cfg.GetSigningKey()),
		signingMethod: cfg.GetSigningMethod(),
		accessTTL:     time.Duration(cfg.GetAccessTokenTTL()) * time.Minute,
		refreshTTL:    time.Duration(cfg.GetRefreshTokenTTL()) * 24 * time.Hour,
		issuer:        cfg.GetIssuer(),
		audience:      cfg.GetAudience(),
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock overrides the time source, mostly so tests can issue tokens that
// are already expired.
func (ts *TokenServiceImpl) WithClock(clock func() time.Time) *TokenServiceImpl {
	if clock != nil {
		ts.now = clock
	}
	return ts
}

// IssueAccess mints a short-lived token that authorizes API requests.
func (ts *TokenServiceImpl) IssueAccess(identity Identity) (string, time.Time, error) {
	return ts.issue(identity, TokenTypeAccess, ts.accessTTL)
}

// IssueRefresh mints the longer-lived exchange-only companion token.
func (ts *TokenServiceImpl) IssueRefresh(identity Identity) (string, time.Time, error) {
	return ts.issue(identity, TokenTypeRefresh, ts.refreshTTL)
}

// IssueWithTTL mints a token of the given type with an explicit lifetime,
// for expiring links and tests. A non-positive ttl falls back to the
// configured lifetime for that type.
func (ts *TokenServiceImpl) IssueWithTTL(identity Identity, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		switch typ {
		case TokenTypeRefresh:
			ttl = ts.refreshTTL
		default:
			ttl = ts.accessTTL
		}
	}
	return ts.issue(identity, typ, ttl)
}

func (ts *TokenServiceImpl) issue(identity Identity, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	if identity == nil {
		return "", time.Time{}, ErrTokenInvalid
	}

	now := ts.now()
	expiresAt := now.Add(ttl)

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:  identity.ID(),
		Type: typ,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		ts.logger.Error("TokenService asked to sign nil claims")
		return "", ErrTokenInvalid
	}

	method := jwt.GetSigningMethod(ts.signingMethod)
	if method == nil {
		ts.logger.Error("TokenService configured with unknown signing method: %s", ts.signingMethod)
		return "", ErrTokenInvalid
	}

	token := jwt.NewWithClaims(method, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		ts.logger.Error("TokenService failed to sign claims: %v", err)
		return "", ErrTokenInvalid
	}

	return signedString, nil
}

// Validate parses and verifies a token string. Every failure mode - expired,
// tampered, malformed, unexpected method, wrong issuer or audience -
// collapses into ErrTokenInvalid so the presenter learns nothing about which
// check tripped. The underlying cause is logged, never returned.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 3)
	parserOptions = append(parserOptions, jwt.WithTimeFunc(ts.now))
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != ts.signingMethod {
			return nil, ErrTokenInvalid
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		ts.logger.Debug("TokenService validate rejected token: %v", err)
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode claims")
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
