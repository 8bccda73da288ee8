package auth_test

import (
	"testing"
	"todolist/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	hasher := auth.NewPasswordHasherWithCost(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, hasher.Verify("correct horse", hash))
	assert.False(t, hasher.Verify("wrong horse", hash))
	assert.False(t, hasher.Verify("correct horse", "not-a-hash"))
}

func TestPasswordHasher_SaltsEveryHash(t *testing.T) {
	hasher := auth.NewPasswordHasherWithCost(bcrypt.MinCost)

	first, err := hasher.Hash("same")
	require.NoError(t, err)
	second, err := hasher.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
