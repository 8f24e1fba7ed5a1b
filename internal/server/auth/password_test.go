package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_Verify(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	assert.NotEqual(t, "pw", hash)
	assert.True(t, VerifyPassword("pw", hash))
	assert.False(t, VerifyPassword("PW", hash))
	assert.False(t, VerifyPassword("pw", "not-a-hash"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 100))
	assert.ErrorIs(t, err, ErrHash)
}
