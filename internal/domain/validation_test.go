package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestValidateEmail 邮箱地址验证
func TestValidateEmail(t *testing.T) {
	validator := NewEmailValidator()

	t.Run("valid addresses", func(t *testing.T) {
		for _, addr := range []string{
			"user@example.com",
			"first.last@example.com",
			"a@sub.example.org",
			"user+tag@example.co.uk",
		} {
			assert.NoError(t, validator.ValidateEmail(addr), addr)
		}
	})

	t.Run("invalid addresses", func(t *testing.T) {
		for _, addr := range []string{
			"",
			"plain",
			"@example.com",
			"user@",
			"user@@example.com",
			"user@localhost", // 域名必须带点
			" user@example.com",
			"user@example.com ",
			"us..er@example.com",
		} {
			assert.Error(t, validator.ValidateEmail(addr), "%q", addr)
		}
	})

	t.Run("length limits", func(t *testing.T) {
		longLocal := strings.Repeat("a", MaxLocalPartLength+1) + "@example.com"
		assert.ErrorIs(t, validator.ValidateEmail(longLocal), ErrLocalPartTooLong)

		longAddr := "a@" + strings.Repeat("b", MaxEmailLength) + ".com"
		assert.ErrorIs(t, validator.ValidateEmail(longAddr), ErrEmailTooLong)
	})
}

// TestStripTags 标题去标记
func TestStripTags(t *testing.T) {
	assert.Equal(t, "Contact us", StripTags("<b>Contact</b> us"))
	assert.Equal(t, "plain", StripTags("plain"))
	assert.Equal(t, "nested", StripTags("<div><span>nested</span></div>"))
	assert.Equal(t, "", StripTags("<br/>"))
}

// TestDefaultSubject 默认主题
func TestDefaultSubject(t *testing.T) {
	assert.Equal(t, "RE: Contact us", DefaultSubject("<b>Contact</b> us"))
	assert.Equal(t, "RE: Feedback", DefaultSubject("Feedback"))
}

// TestRecipients 收件人切分保留原有行为
func TestRecipients(t *testing.T) {
	t.Run("plain comma separated list", func(t *testing.T) {
		req := &ReplyRequest{RecipientsRaw: "a@x.com,b@y.com"}
		assert.Equal(t, []string{"a@x.com", "b@y.com"}, req.Recipients())
	})

	t.Run("whitespace is not trimmed", func(t *testing.T) {
		req := &ReplyRequest{RecipientsRaw: "a@x.com, b@y.com"}
		assert.Equal(t, []string{"a@x.com", " b@y.com"}, req.Recipients())
	})

	t.Run("trailing comma yields an empty segment", func(t *testing.T) {
		req := &ReplyRequest{RecipientsRaw: "a@x.com,"}
		assert.Equal(t, []string{"a@x.com", ""}, req.Recipients())
	})
}

// TestAccountPermissions 账户权限判定
func TestAccountPermissions(t *testing.T) {
	form := &Form{ID: "f1", OwnerID: "owner"}

	t.Run("reply_all covers any form", func(t *testing.T) {
		account := &Account{ID: "x", Permissions: "reply_all"}
		assert.True(t, account.CanReply(form))
	})

	t.Run("reply_own only covers owned forms", func(t *testing.T) {
		owner := &Account{ID: "owner", Permissions: "reply_own"}
		other := &Account{ID: "other", Permissions: "reply_own"}
		assert.True(t, owner.CanReply(form))
		assert.False(t, other.CanReply(form))
	})

	t.Run("multiple permissions parsed from list", func(t *testing.T) {
		account := &Account{ID: "x", Permissions: "reply_own, reply_all"}
		assert.True(t, account.HasPermission(PermReplyAll))
		assert.True(t, account.HasPermission(PermReplyOwn))
	})

	t.Run("no permissions denies", func(t *testing.T) {
		account := &Account{ID: "x"}
		assert.False(t, account.CanReply(form))
	})
}

// TestNotices 通知收集顺序
func TestNotices(t *testing.T) {
	notices := &Notices{}
	notices.AddStatus("a@x.com", "sent")
	notices.AddError("b@y.com", "failed")
	notices.AddStatus("c@z.com", "sent")

	items := notices.Items()
	assert.Len(t, items, 3)
	assert.Equal(t, NoticeStatus, items[0].Level)
	assert.Equal(t, NoticeError, items[1].Level)
	assert.Equal(t, "b@y.com", items[1].Address)
	assert.True(t, notices.HasErrors())
}
