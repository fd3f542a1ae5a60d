package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// TestGenerateAndValidate 令牌签发与验证往返
func TestGenerateAndValidate(t *testing.T) {
	manager := NewManager(testSecret, "formreply", 15*time.Minute, 7*24*time.Hour)

	pair, err := manager.GenerateTokenPair("acc-1", "editor")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := manager.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "editor", claims.Username)
	assert.Equal(t, "formreply", claims.Issuer)
}

// TestValidateToken 异常令牌
func TestValidateToken(t *testing.T) {
	manager := NewManager(testSecret, "formreply", 15*time.Minute, time.Hour)

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := manager.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token signed with another secret rejected", func(t *testing.T) {
		other := NewManager("another-secret-value-another-secret", "formreply", time.Minute, time.Hour)
		pair, err := other.GenerateTokenPair("acc-1", "editor")
		require.NoError(t, err)

		_, err = manager.ValidateToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired := NewManager(testSecret, "formreply", -time.Minute, time.Hour)
		pair, err := expired.GenerateTokenPair("acc-1", "editor")
		require.NoError(t, err)

		_, err = manager.ValidateToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}
