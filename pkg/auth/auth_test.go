package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftedcrochet/storefront/pkg/auth"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, auth.CheckPassword(hash, "hunter2"))
	assert.False(t, auth.CheckPassword(hash, "hunter3"))
	assert.False(t, auth.CheckPassword("not-a-hash", "hunter2"))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.GenerateToken("mira", "admin")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "mira", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "storefront", claims.Issuer)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := auth.ValidateToken("not.a.token")
	assert.Error(t, err)

	_, err = auth.ValidateToken("")
	assert.Error(t, err)
}
