package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-chat-accounts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionObjectGetters(t *testing.T) {
	userID := uuid.New().String()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiresAt := issuedAt.Add(30 * time.Minute)

	session := &accounts.SessionObject{
		UserID:         userID,
		Audience:       []string{"test:audience"},
		Issuer:         "test-issuer",
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
		TokenType:      accounts.TokenTypeAccess,
		Data:           map[string]any{"device": "mobile"},
	}

	assert.Equal(t, userID, session.GetUserID())
	assert.Equal(t, []string{"test:audience"}, session.GetAudience())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, &issuedAt, session.GetIssuedAt())
	assert.Equal(t, accounts.TokenTypeAccess, session.GetTokenType())
	assert.Equal(t, "mobile", session.GetData()["device"])

	parsed, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed.String())
}

func TestSessionObjectGetUserUUIDRejectsNonUUID(t *testing.T) {
	session := &accounts.SessionObject{UserID: "not-a-uuid"}

	_, err := session.GetUserUUID()
	assert.Error(t, err)
}

func TestSessionObjectString(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	session := accounts.SessionObject{
		UserID:    "user-123",
		Issuer:    "test-issuer",
		IssuedAt:  &issuedAt,
		TokenType: accounts.TokenTypeAccess,
	}

	out := session.String()
	assert.Contains(t, out, "user=user-123")
	assert.Contains(t, out, "iss=test-issuer")
	assert.Contains(t, out, "type=access")
}
