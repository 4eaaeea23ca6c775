package accounts

import (
	"context"
	"reflect"
	"time"
)

type Auther struct {
	provider       IdentityProvider
	config         Config
	logger         Logger
	tokenService   TokenService
	tokenValidator TokenValidator
	activitySink   ActivitySink
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	return &Auther{
		provider:     provider,
		config:       opts,
		logger:       defLogger{},
		tokenService: NewTokenService(opts, defLogger{}),
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(s.config, logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// WithTokenService replaces the token service, mostly for tests that need a
// fixed clock.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and hands back an access/refresh pair.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.VerifyIdentity(ctx, identifier, password); err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      ErrInvalidCredentials.Error(),
		})
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": identifier,
	})

	return pair, nil
}

// Refresh exchanges a valid refresh token for a brand new pair. Access tokens
// are rejected here the same way refresh tokens are rejected by the request
// middleware: each token type is only good for its own job.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.validateToken(refreshToken)
	if err != nil {
		s.logger.Error("Refresh token validation failed: %v", err)
		return nil, ErrTokenInvalid
	}

	if claims.TokenType() != TokenTypeRefresh {
		s.logger.Error("Refresh called with a non refresh token")
		return nil, ErrTokenInvalid
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, claims.UserID())
	if err != nil {
		s.logger.Error("Refresh identity lookup failed: %v", err)
		return nil, ErrTokenInvalid
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return nil, ErrTokenInvalid
	}

	pair, err := s.issuePair(identity)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefreshed, s.actorFromIdentity(identity), identity.ID(), nil)

	return pair, nil
}

func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())

	if err != nil {
		s.logger.Error("IdentityFromSession find identity by identifier: %v", err)
		return nil, err
	}

	return identity, nil
}

func (s Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.validateToken(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed: %v", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims: %v", err)
		return nil, err
	}

	return session, nil
}

func (s *Auther) validateToken(raw string) (AuthClaims, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}
	return validator.Validate(raw)
}

func (s *Auther) issuePair(identity Identity) (*TokenPair, error) {
	access, accessExp, err := s.tokenService.IssueAccess(identity)
	if err != nil {
		s.logger.Error("failed to issue access token: %v", err)
		return nil, err
	}

	refresh, refreshExp, err := s.tokenService.IssueRefresh(identity)
	if err != nil {
		s.logger.Error("failed to issue refresh token: %v", err)
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "bearer",
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID(),
		Type: "user",
	}
}
