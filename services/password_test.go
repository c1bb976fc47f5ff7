package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSHA256Hasher(t *testing.T) {
	h := SHA256Hasher{}

	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.Len(t, hash, 64)
	assert.Equal(t, "ef92b778bafe771e89245b89ecbc08a44a4e166c06659911881f383d4473e94f", hash)

	again, _ := h.Hash("password123")
	assert.Equal(t, hash, again, "digest is deterministic")

	assert.True(t, h.Verify("password123", hash))
	assert.False(t, h.Verify("password124", hash))
	assert.False(t, h.Verify("password123", ""))
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	other, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "bcrypt salts every hash")

	assert.True(t, h.Verify("password123", hash))
	assert.True(t, h.Verify("password123", other))
	assert.False(t, h.Verify("wrong", hash))
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher("")
	require.NoError(t, err)
	assert.IsType(t, SHA256Hasher{}, h)

	h, err = NewPasswordHasher("bcrypt")
	require.NoError(t, err)
	assert.IsType(t, &BcryptHasher{}, h)

	_, err = NewPasswordHasher("md5")
	assert.Error(t, err)
}
