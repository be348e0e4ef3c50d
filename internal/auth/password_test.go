package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordSaltsEachDigest(t *testing.T) {
	first, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	second, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	// Same plaintext, different digests, both verify
	assert.NotEqual(t, first, second)

	ok, err := VerifyPassword("correct horse battery staple", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("correct horse battery staple", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPasswordMismatchIsNotAnError(t *testing.T) {
	digest, err := HashPassword("right-password")
	require.NoError(t, err)

	ok, err := VerifyPassword("wrong-password", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	ok, err := VerifyPassword("anything", "not-a-bcrypt-digest")
	require.Error(t, err)
	assert.False(t, ok)
}
