package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/storage"
)

// TestSaveReply 测试回复记录的追加与序号分配
func TestSaveReply(t *testing.T) {
	store := NewStore()

	t.Run("assigns monotonic sequence numbers", func(t *testing.T) {
		first := &domain.Reply{ID: "r1", FormID: "7", SubmissionID: "42"}
		second := &domain.Reply{ID: "r2", FormID: "7", SubmissionID: "42"}

		require.NoError(t, store.SaveReply(first))
		require.NoError(t, store.SaveReply(second))

		assert.Equal(t, int64(1), first.Seq)
		assert.Equal(t, int64(2), second.Seq)
		assert.True(t, second.Seq > first.Seq)
	})

	t.Run("assigns sent time when zero", func(t *testing.T) {
		reply := &domain.Reply{ID: "r3", FormID: "7", SubmissionID: "42"}
		require.NoError(t, store.SaveReply(reply))
		assert.False(t, reply.SentAt.IsZero())
	})

	t.Run("preserves explicit sent time", func(t *testing.T) {
		sentAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		reply := &domain.Reply{ID: "r4", FormID: "7", SubmissionID: "42", SentAt: sentAt}
		require.NoError(t, store.SaveReply(reply))
		assert.Equal(t, sentAt, reply.SentAt)
	})
}

// TestListReplies 测试历史查询的往返一致性
func TestListReplies(t *testing.T) {
	store := NewStore()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveReply(&domain.Reply{
			FormID:       "7",
			SubmissionID: "42",
			FromAddress:  "admin@example.com",
			ToAddress:    "user@example.com",
		}))
	}
	// 另一个提交的回复不应混入
	require.NoError(t, store.SaveReply(&domain.Reply{FormID: "7", SubmissionID: "99"}))
	require.NoError(t, store.SaveReply(&domain.Reply{FormID: "8", SubmissionID: "42"}))

	t.Run("returns exactly the matching records in insertion order", func(t *testing.T) {
		replies, err := store.ListReplies("7", "42")
		require.NoError(t, err)
		require.Len(t, replies, 3)
		for i := 1; i < len(replies); i++ {
			assert.True(t, replies[i].Seq > replies[i-1].Seq)
		}
	})

	t.Run("different pair returns empty sequence", func(t *testing.T) {
		replies, err := store.ListReplies("7", "404")
		require.NoError(t, err)
		assert.Empty(t, replies)
	})

	t.Run("count matches listing", func(t *testing.T) {
		count, err := store.CountReplies("7", "42")
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		count, err = store.CountReplies("9", "9")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

// TestFileMetadata 测试文件元数据存取
func TestFileMetadata(t *testing.T) {
	store := NewStore()

	file := &domain.StoredFile{
		ID:          "f1",
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Size:        1024,
		Permanent:   false,
	}
	require.NoError(t, store.SaveFile(file))

	t.Run("get returns stored metadata", func(t *testing.T) {
		got, err := store.GetFile("f1")
		require.NoError(t, err)
		assert.Equal(t, "report.pdf", got.Filename)
		assert.False(t, got.Permanent)
	})

	t.Run("update marks file permanent", func(t *testing.T) {
		file.Permanent = true
		require.NoError(t, store.UpdateFile(file))

		got, err := store.GetFile("f1")
		require.NoError(t, err)
		assert.True(t, got.Permanent)
	})

	t.Run("missing file returns ErrFileNotFound", func(t *testing.T) {
		_, err := store.GetFile("missing")
		assert.ErrorIs(t, err, storage.ErrFileNotFound)

		err = store.UpdateFile(&domain.StoredFile{ID: "missing"})
		assert.ErrorIs(t, err, storage.ErrFileNotFound)
	})
}

// TestAccounts 测试账户存取
func TestAccounts(t *testing.T) {
	store := NewStore()

	account := &domain.Account{
		ID:          "a1",
		Username:    "editor",
		Email:       "editor@example.com",
		Permissions: string(domain.PermReplyOwn),
	}
	require.NoError(t, store.CreateAccount(account))

	t.Run("duplicate id rejected", func(t *testing.T) {
		err := store.CreateAccount(&domain.Account{ID: "a1", Username: "other"})
		assert.ErrorIs(t, err, storage.ErrAccountExists)
	})

	t.Run("duplicate username rejected case-insensitively", func(t *testing.T) {
		err := store.CreateAccount(&domain.Account{ID: "a2", Username: "Editor"})
		assert.ErrorIs(t, err, storage.ErrAccountExists)
	})

	t.Run("lookup by username", func(t *testing.T) {
		got, err := store.GetAccountByUsername("EDITOR")
		require.NoError(t, err)
		assert.Equal(t, "a1", got.ID)
	})

	t.Run("update last login", func(t *testing.T) {
		require.NoError(t, store.UpdateLastLogin("a1"))
		got, err := store.GetAccountByID("a1")
		require.NoError(t, err)
		require.NotNil(t, got.LastLoginAt)
	})
}
