package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	assert.NotEqual(t, "secret", hash, "hash must not be the plaintext")
	assert.True(t, CheckPassword("secret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, err := HashPassword("secret")
	require.NoError(t, err)
	b, err := HashPassword("secret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
