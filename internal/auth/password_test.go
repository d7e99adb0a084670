package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordNeverStoresPlaintext(t *testing.T) {
	hash, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)

	assert.NotEqual(t, "Str0ng!Pass", hash)
	assert.True(t, CheckPassword(hash, "Str0ng!Pass"))
	assert.False(t, CheckPassword(hash, "Str0ng!Pass2"))
}

func TestCheckPasswordBadHash(t *testing.T) {
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "whatever"))
}
