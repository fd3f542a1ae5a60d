package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/storage/memory"
)

func seedAccount(t *testing.T, store *memory.Store, active bool) *domain.Account {
	t.Helper()

	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	account := &domain.Account{
		ID:           "acc-1",
		Username:     "editor",
		Email:        "editor@example.com",
		PasswordHash: hash,
		Permissions:  string(domain.PermReplyAll),
		IsActive:     active,
	}
	require.NoError(t, store.CreateAccount(account))
	return account
}

// TestLogin 登录流程
func TestLogin(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, true)
		svc := NewService(store)

		account, err := svc.Login("editor", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, "acc-1", account.ID)
		assert.NotNil(t, account.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, true)
		svc := NewService(store)

		_, err := svc.Login("editor", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		svc := NewService(memory.NewStore())
		_, err := svc.Login("ghost", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		store := memory.NewStore()
		seedAccount(t, store, false)
		svc := NewService(store)

		_, err := svc.Login("editor", "s3cret-pass")
		assert.ErrorIs(t, err, ErrAccountInactive)
	})
}

// TestHashPassword 密码哈希
func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pass-123")
	require.NoError(t, err)
	assert.NotEqual(t, "pass-123", hash)
	assert.True(t, VerifyPassword(hash, "pass-123"))
	assert.False(t, VerifyPassword(hash, "pass-124"))
}
