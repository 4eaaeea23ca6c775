package jwtware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubClaims struct {
	tokenType string
}

func (s stubClaims) Subject() string   { return "user-1" }
func (s stubClaims) UserID() string    { return "user-1" }
func (s stubClaims) TokenType() string { return s.tokenType }

func TestKeyfuncOptionsRefreshErrorHandlerIsSafe(t *testing.T) {
	opts := keyfuncOptions(nil)
	require.NotNil(t, opts.RefreshErrorHandler)
	require.NotPanics(t, func() {
		opts.RefreshErrorHandler(errors.New("refresh failed"))
	})

	require.Equal(t, time.Hour, opts.RefreshInterval)
	require.Equal(t, 5*time.Minute, opts.RefreshRateLimit)
	require.Equal(t, 10*time.Second, opts.RefreshTimeout)
	require.True(t, opts.RefreshUnknownKID)
}

func TestEnforceTokenType(t *testing.T) {
	tests := []struct {
		name      string
		tokenType string
		allowed   string
		wantErr   error
	}{
		{"access token on access route", "access", "access", nil},
		{"refresh token on access route", "refresh", "access", ErrWrongTokenType},
		{"refresh token on refresh route", "refresh", "refresh", nil},
		{"wildcard accepts access", "access", "*", nil},
		{"wildcard accepts refresh", "refresh", "*", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := enforceTokenType(stubClaims{tokenType: tt.tokenType}, Config{AllowedTokenType: tt.allowed})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGetExtractors(t *testing.T) {
	t.Run("empty lookup yields no extractors", func(t *testing.T) {
		extractors := GetExtractors("")
		require.Empty(t, extractors)
	})

	t.Run("single header source", func(t *testing.T) {
		extractors := GetExtractors("header:Authorization")
		require.Len(t, extractors, 1)
	})

	t.Run("parses every source", func(t *testing.T) {
		extractors := GetExtractors("header:Authorization,query:token,param:jwt,cookie:jwt_cookie")
		require.Len(t, extractors, 4)
	})

	t.Run("ignores unknown sources", func(t *testing.T) {
		extractors := GetExtractors("body:token,query:token")
		require.Len(t, extractors, 1)
	})
}
