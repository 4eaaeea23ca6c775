package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-chat-accounts"
	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true, // bcrypt can hash empty strings!
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := accounts.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			err = accounts.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	// Create a known password hash
	password := "testPassword123!"
	hash, err := accounts.HashPassword(password)
	assert.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Invalid hash",
			password: password,
			hash:     "invalidhash",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accounts.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.hash == hash {
					// a mismatch surfaces as the generic credential failure
					assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRandomPasswordHash(t *testing.T) {
	hash1 := accounts.RandomPasswordHash()
	hash2 := accounts.RandomPasswordHash()

	assert.NotEmpty(t, hash1)
	assert.NotEmpty(t, hash2)
	assert.NotEqual(t, hash1, hash2)
}
