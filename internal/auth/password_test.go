package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyRoomPassword(t *testing.T) {
	hash, err := HashRoomPassword("open sesame")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	match, err := VerifyRoomPassword("open sesame", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = VerifyRoomPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashRoomPassword("same")
	require.NoError(t, err)
	second, err := HashRoomPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyMalformedHash(t *testing.T) {
	_, err := VerifyRoomPassword("x", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)

	_, err = VerifyRoomPassword("x", "$argon2id$v=999$m=32768,t=3,p=2$c2FsdA$a2V5")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}
