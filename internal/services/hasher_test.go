package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()
	h := BcryptHasher{Cost: bcrypt.MinCost}

	hashed, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hashed)
	assert.True(t, h.Compare(hashed, "hunter22"))
	assert.False(t, h.Compare(hashed, "hunter23"))
	assert.False(t, h.Compare("", "hunter22"))
}

func TestNewBcryptHasherCost(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 12, NewBcryptHasher().Cost)
}
