package accounts

import (
	"context"

	"github.com/goliatone/go-chat-accounts/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator wires the token service into the request pipeline for a
// bearer-token JSON API.
type RouteAuthenticator struct {
	auth             Authenticator
	cfg              Config
	users            Users
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// WithUsers lets the protected-route middleware resolve the token subject
// into a full account record.
func (a *RouteAuthenticator) WithUsers(users Users) *RouteAuthenticator {
	a.users = users
	return a
}

// ProtectedRoute returns middleware that only lets verified access tokens
// through. Refresh tokens, tampered tokens, and expired tokens are all
// rejected with the same response.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:       cfg.GetAuthScheme(),
			ContextKey:       cfg.GetContextKey(),
			TokenLookup:      cfg.GetTokenLookup(),
			AllowedTokenType: TokenTypeAccess,
			TokenValidator:   JWTValidatorAdapter{Inner: NewTokenService(cfg, a.Logger)},
			ContextEnricher:  ContextEnricherAdapter,
			SubjectLoader:    a.subjectLoader(),
		})
	}
}

func (a *RouteAuthenticator) subjectLoader() jwtware.SubjectLoader {
	if a.users == nil {
		return nil
	}

	return func(ctx context.Context, subject string) (any, error) {
		user, err := a.users.GetByIdentifier(ctx, subject)
		if err != nil {
			return nil, err
		}
		return user, nil
	}
}

func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (*TokenPair, error) {
	pair, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %v", err)
		return nil, err
	}
	return pair, nil
}

func (a *RouteAuthenticator) Refresh(ctx router.Context, refreshToken string) (*TokenPair, error) {
	pair, err := a.auth.Refresh(ctx.Context(), refreshToken)
	if err != nil {
		a.Logger.Error("Refresh error: %v", err)
		return nil, err
	}
	return pair, nil
}

// MakeAuthErrorHandler collapses every authentication failure into one 401
// JSON body. Missing header, malformed token, expired token, wrong token
// type: the response is identical for all of them.
func (a *RouteAuthenticator) MakeAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		if optional {
			a.Logger.Info("Optional auth failed, proceeding: %v", err)
			return ctx.Next()
		}

		return a.AuthErrorHandler(ctx, ErrTokenInvalid)
	}
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = ErrTokenInvalid
	}

	return c.JSON(router.StatusUnauthorized, map[string]any{
		"error": map[string]any{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"request error handler category=%s error=%s details=%s",
		richErr.Category,
		richErr.Message,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.JSON(statusFromError(richErr), map[string]any{
			"error": map[string]any{
				"message":   richErr.Message,
				"text_code": richErr.TextCode,
			},
		})
	}
}

func statusFromError(richErr *errors.Error) int {
	if richErr.Code > 0 {
		return richErr.Code
	}
	return router.StatusInternalServerError
}
