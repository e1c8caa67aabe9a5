package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("sup3r-secret")
	require.NoError(t, err)
	assert.NotEqual(t, "sup3r-secret", hash)

	assert.NoError(t, hasher.Compare(hash, "sup3r-secret"))
	assert.Error(t, hasher.Compare(hash, "wrong-password"))
}

func TestHashRejectsShortPassword(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)
	_, err := hasher.Hash("short")
	assert.Error(t, err)
}

func TestGenerateTempPassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		password, err := GenerateTempPassword()
		require.NoError(t, err)
		assert.Len(t, password, tempPasswordLength)
		for _, r := range password {
			assert.True(t, strings.ContainsRune(tempPasswordChars, r))
		}
		assert.False(t, seen[password])
		seen[password] = true
	}
}
