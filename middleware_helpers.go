package accounts

import (
	"context"

	"github.com/goliatone/go-chat-accounts/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use accounts helpers directly.
type ValidationListener = jwtware.ValidationListener

// JWTValidatorAdapter bridges an accounts TokenValidator into the interface
// the middleware consumes. The accounts AuthClaims method set is a superset
// of the middleware's, so claims pass through untouched.
type JWTValidatorAdapter struct {
	Inner TokenValidator
}

func (a JWTValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.Inner.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ContextEnricherAdapter adapts jwtware.AuthClaims to accounts.AuthClaims and
// stores claims in the standard context for downstream usage.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	return WithClaimsContext(c, authClaims)
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
