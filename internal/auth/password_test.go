package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.NotEqual(t, "correct horse battery staple", hash)

	// Salted: hashing the same password twice gives different hashes.
	again, err := HashPassword("correct horse battery staple")
	assert.NoError(t, err)
	assert.NotEqual(t, hash, again)
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-passw0rd")
	assert.NoError(t, err)

	assert.True(t, CheckPasswordHash("s3cret-passw0rd", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("s3cret-passw0rd", "not-a-bcrypt-hash"))
}
