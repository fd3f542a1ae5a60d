package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/mailer"
	"formreply/backend/internal/storage/memory"
)

// fakeSender 可编排的邮件传输桩：按收件人地址决定成功或失败。
type fakeSender struct {
	failFor map[string]bool
	sent    []*mailer.Email
}

func (f *fakeSender) Send(_ context.Context, email *mailer.Email) error {
	if f.failFor[email.To] {
		return errors.New("relay rejected recipient")
	}
	f.sent = append(f.sent, email)
	return nil
}

// fakeFileStore 内存文件桩。
type fakeFileStore struct {
	files      map[string][]byte // fileID -> content
	promoteErr error
	promoted   []string
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[string][]byte{}}
}

func (f *fakeFileStore) Promote(fileID string) (string, error) {
	if f.promoteErr != nil {
		return "", f.promoteErr
	}
	if _, ok := f.files[fileID]; !ok {
		return "", errors.New("file missing")
	}
	f.promoted = append(f.promoted, fileID)
	return "permanent/" + fileID, nil
}

func (f *fakeFileStore) ReadBytes(fileID string) ([]byte, error) {
	content, ok := f.files[fileID]
	if !ok {
		return nil, errors.New("file missing")
	}
	return content, nil
}

func (f *fakeFileStore) ResolveURL(fileID string) (string, error) {
	if _, ok := f.files[fileID]; !ok {
		return "", errors.New("file missing")
	}
	return "http://localhost:8080/v1/files/" + fileID, nil
}

func (f *fakeFileStore) RealPath(fileID string) (string, error) {
	return "/data/uploads/permanent/" + fileID, nil
}

func newTestService(t *testing.T) (*ReplyService, *memory.Store, *fakeSender, *fakeFileStore) {
	t.Helper()

	store := memory.NewStore()
	sender := &fakeSender{failFor: map[string]bool{}}
	fsStore := newFakeFileStore()
	svc := NewReplyService(store, fsStore, sender, "site@example.com", nil)

	require.NoError(t, store.SaveForm(&domain.Form{
		ID:            "7",
		Title:         "<b>Contact</b> us",
		OwnerID:       "owner-1",
		EmailHandlers: 1,
	}))
	require.NoError(t, store.SaveSubmission(&domain.Submission{ID: "42", FormID: "7"}))

	return svc, store, sender, fsStore
}

func validRequest() *domain.ReplyRequest {
	return &domain.ReplyRequest{
		FromAddress:   "admin@example.com",
		RecipientsRaw: "user@example.com",
		Subject:       "RE: Contact us",
		Message:       "<p>Hello</p>",
	}
}

// TestValidate 校验规则
func TestValidate(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	t.Run("valid request passes", func(t *testing.T) {
		assert.Empty(t, svc.Validate(validRequest()))
	})

	t.Run("invalid from address names the address", func(t *testing.T) {
		req := validRequest()
		req.FromAddress = "not-an-address"
		fieldErrors := svc.Validate(req)
		require.Len(t, fieldErrors, 1)
		assert.Equal(t, "from_address", fieldErrors[0].Field)
		assert.Equal(t, "not-an-address", fieldErrors[0].Address)
	})

	t.Run("first invalid recipient is named", func(t *testing.T) {
		req := validRequest()
		req.RecipientsRaw = "ok@example.com,bad@@example.com,also-bad"
		fieldErrors := svc.Validate(req)
		require.Len(t, fieldErrors, 1)
		assert.Equal(t, "email", fieldErrors[0].Field)
		assert.Equal(t, "bad@@example.com", fieldErrors[0].Address)
	})

	t.Run("both address fields are always checked", func(t *testing.T) {
		req := validRequest()
		req.FromAddress = "broken"
		req.RecipientsRaw = "also broken"
		fieldErrors := svc.Validate(req)
		require.Len(t, fieldErrors, 2)
		assert.Equal(t, "from_address", fieldErrors[0].Field)
		assert.Equal(t, "email", fieldErrors[1].Field)
	})

	t.Run("comma split does not trim whitespace", func(t *testing.T) {
		// 保留原有行为：逗号后带空格的地址被视为非法
		req := validRequest()
		req.RecipientsRaw = "a@example.com, b@example.com"
		fieldErrors := svc.Validate(req)
		require.Len(t, fieldErrors, 1)
		assert.Equal(t, " b@example.com", fieldErrors[0].Address)
	})

	t.Run("trailing comma produces an empty invalid segment", func(t *testing.T) {
		req := validRequest()
		req.RecipientsRaw = "a@example.com,"
		fieldErrors := svc.Validate(req)
		require.Len(t, fieldErrors, 1)
		assert.Equal(t, "", fieldErrors[0].Address)
	})

	t.Run("required fields", func(t *testing.T) {
		fieldErrors := svc.Validate(&domain.ReplyRequest{})
		assert.Len(t, fieldErrors, 4)
	})
}

// TestSubmitValidationGate 校验失败时不产生任何副作用
func TestSubmitValidationGate(t *testing.T) {
	svc, store, sender, _ := newTestService(t)

	req := validRequest()
	req.RecipientsRaw = "bad-address"

	result, err := svc.Submit(context.Background(), "7", "42", req)
	require.NoError(t, err)
	assert.True(t, result.Rejected())
	assert.Empty(t, sender.sent)

	replies, err := store.ListReplies("7", "42")
	require.NoError(t, err)
	assert.Empty(t, replies)
}

// TestSubmitPerRecipientIndependence 逐收件人独立投递
func TestSubmitPerRecipientIndependence(t *testing.T) {
	svc, store, sender, _ := newTestService(t)
	sender.failFor["b@example.com"] = true

	req := validRequest()
	req.RecipientsRaw = "a@example.com,b@example.com,c@example.com"

	result, err := svc.Submit(context.Background(), "7", "42", req)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)

	// B 的失败不阻止 C：实际投递了 A 和 C
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "a@example.com", sender.sent[0].To)
	assert.Equal(t, "c@example.com", sender.sent[1].To)

	// 恰好两条历史记录（A 和 C）
	replies, err := store.ListReplies("7", "42")
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "a@example.com", replies[0].ToAddress)
	assert.Equal(t, "c@example.com", replies[1].ToAddress)

	// 两条成功通知 + 一条指名失败地址的错误通知
	var statuses, errors int
	for _, notice := range result.Notices {
		switch notice.Level {
		case domain.NoticeStatus:
			statuses++
		case domain.NoticeError:
			errors++
			assert.Equal(t, "b@example.com", notice.Address)
		}
	}
	assert.Equal(t, 2, statuses)
	assert.Equal(t, 1, errors)
}

// TestSubmitWithAttachment 附件提升与载荷组装
func TestSubmitWithAttachment(t *testing.T) {
	svc, store, sender, fsStore := newTestService(t)

	fsStore.files["file-1"] = []byte("attachment-bytes")
	require.NoError(t, store.SaveFile(&domain.StoredFile{
		ID:          "file-1",
		Filename:    "report.pdf",
		ContentType: "application/pdf",
	}))

	req := validRequest()
	req.FileID = "file-1"

	result, err := svc.Submit(context.Background(), "7", "42", req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)

	t.Run("attachment promoted before send", func(t *testing.T) {
		assert.Equal(t, []string{"file-1"}, fsStore.promoted)
		file, err := store.GetFile("file-1")
		require.NoError(t, err)
		assert.True(t, file.Permanent)
	})

	t.Run("email carries payload and fixed headers", func(t *testing.T) {
		require.Len(t, sender.sent, 1)
		email := sender.sent[0]
		require.NotNil(t, email.Attachment)
		assert.Equal(t, "report.pdf", email.Attachment.Filename)
		assert.Equal(t, []byte("attachment-bytes"), email.Attachment.Content)
		assert.Equal(t, "1.0", email.Headers["MIME-Version"])
		assert.Equal(t, "8Bit", email.Headers["Content-Transfer-Encoding"])
	})

	t.Run("history record references the attachment", func(t *testing.T) {
		replies, err := store.ListReplies("7", "42")
		require.NoError(t, err)
		require.Len(t, replies, 1)
		assert.Equal(t, "file-1", replies[0].AttachmentID)
	})
}

// TestSubmitAttachmentPromotionFatal 附件提升失败导致整体终止
func TestSubmitAttachmentPromotionFatal(t *testing.T) {
	svc, store, sender, fsStore := newTestService(t)

	fsStore.files["file-2"] = []byte("x")
	fsStore.promoteErr = errors.New("disk full")
	require.NoError(t, store.SaveFile(&domain.StoredFile{ID: "file-2", Filename: "a.txt"}))

	req := validRequest()
	req.FileID = "file-2"
	req.RecipientsRaw = "a@example.com,b@example.com"

	_, err := svc.Submit(context.Background(), "7", "42", req)
	assert.ErrorIs(t, err, ErrAttachmentPromotion)

	// 什么都没有发送，也没有写历史
	assert.Empty(t, sender.sent)
	replies, listErr := store.ListReplies("7", "42")
	require.NoError(t, listErr)
	assert.Empty(t, replies)
}

// TestSubmitWithoutAttachmentNoHeaders 无附件时不携带固定头部
func TestSubmitWithoutAttachmentNoHeaders(t *testing.T) {
	svc, _, sender, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), "7", "42", validRequest())
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Nil(t, sender.sent[0].Attachment)
	assert.Nil(t, sender.sent[0].Headers)
}

// TestCompose 撰写页预填
func TestCompose(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	t.Run("defaults with no prior replies", func(t *testing.T) {
		view, err := svc.Compose("7", "42")
		require.NoError(t, err)
		assert.Equal(t, "site@example.com", view.FromAddress)
		// 标题中的标记被去除
		assert.Equal(t, "RE: Contact us", view.Subject)
		assert.Equal(t, 0, view.RepliesCount)
		assert.Empty(t, view.HistoryLabel)
		assert.Empty(t, view.HistoryURL)
	})

	t.Run("singular label for one prior reply", func(t *testing.T) {
		require.NoError(t, store.SaveReply(&domain.Reply{FormID: "7", SubmissionID: "42"}))
		view, err := svc.Compose("7", "42")
		require.NoError(t, err)
		assert.Equal(t, "1 previous reply", view.HistoryLabel)
		assert.NotEmpty(t, view.HistoryURL)
	})

	t.Run("plural label with count substitution", func(t *testing.T) {
		require.NoError(t, store.SaveReply(&domain.Reply{FormID: "7", SubmissionID: "42"}))
		require.NoError(t, store.SaveReply(&domain.Reply{FormID: "7", SubmissionID: "42"}))
		view, err := svc.Compose("7", "42")
		require.NoError(t, err)
		assert.Equal(t, "3 previous replies", view.HistoryLabel)
	})

	t.Run("unknown submission fails", func(t *testing.T) {
		_, err := svc.Compose("7", "404")
		assert.Error(t, err)
	})
}

// TestHistory 历史表格投影
func TestHistory(t *testing.T) {
	svc, store, _, fsStore := newTestService(t)

	fsStore.files["att-1"] = []byte("x")
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveReply(&domain.Reply{
			FormID:       "7",
			SubmissionID: "42",
			FromAddress:  "admin@example.com",
			Message:      fmt.Sprintf("message %d", i+1),
			SentAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}

	t.Run("default sort is descending insertion order", func(t *testing.T) {
		page, err := svc.History("7", "42", HistoryQuery{})
		require.NoError(t, err)
		require.Len(t, page.Rows, 5)
		assert.Equal(t, SortDesc, page.Sort)
		assert.Equal(t, "message 5", page.Rows[0].Message)
		assert.Equal(t, 1, page.Rows[0].Seq)
		assert.Equal(t, "2025-03-01 09:04", page.Rows[0].SentAt)
	})

	t.Run("ascending sort restores insertion order", func(t *testing.T) {
		page, err := svc.History("7", "42", HistoryQuery{Sort: SortAsc})
		require.NoError(t, err)
		assert.Equal(t, "message 1", page.Rows[0].Message)
	})

	t.Run("pagination recomputes row numbers per page", func(t *testing.T) {
		page, err := svc.History("7", "42", HistoryQuery{Sort: SortAsc, Page: 2, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, page.Rows, 2)
		assert.Equal(t, 3, page.Rows[0].Seq)
		assert.Equal(t, "message 3", page.Rows[0].Message)
		assert.Equal(t, 5, page.Total)
	})

	t.Run("attachment indicator resolves or degrades to none", func(t *testing.T) {
		require.NoError(t, store.SaveReply(&domain.Reply{
			FormID: "7", SubmissionID: "42", AttachmentID: "att-1", SentAt: base,
		}))
		require.NoError(t, store.SaveReply(&domain.Reply{
			FormID: "7", SubmissionID: "42", AttachmentID: "dangling", SentAt: base,
		}))

		page, err := svc.History("7", "42", HistoryQuery{Sort: SortAsc, PageSize: 100})
		require.NoError(t, err)
		require.Len(t, page.Rows, 7)
		assert.Equal(t, "http://localhost:8080/v1/files/att-1", page.Rows[5].Attachment)
		assert.Equal(t, "none", page.Rows[6].Attachment)
		assert.Equal(t, "none", page.Rows[0].Attachment)
	})

	t.Run("other submission is empty", func(t *testing.T) {
		page, err := svc.History("7", "404", HistoryQuery{})
		require.NoError(t, err)
		assert.Empty(t, page.Rows)
		assert.Equal(t, 0, page.Total)
	})
}

// TestAuthorize 访问判定
func TestAuthorize(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	all := &domain.Account{ID: "x", Permissions: string(domain.PermReplyAll)}
	owner := &domain.Account{ID: "owner-1", Permissions: string(domain.PermReplyOwn)}
	stranger := &domain.Account{ID: "y", Permissions: string(domain.PermReplyOwn)}
	nobody := &domain.Account{ID: "z"}

	t.Run("reply_all always allowed", func(t *testing.T) {
		assert.NoError(t, svc.Authorize(all, "7", true))
	})

	t.Run("reply_own requires ownership", func(t *testing.T) {
		assert.NoError(t, svc.Authorize(owner, "7", true))
		assert.ErrorIs(t, svc.Authorize(stranger, "7", true), ErrPermissionDenied)
	})

	t.Run("no permission denied", func(t *testing.T) {
		assert.ErrorIs(t, svc.Authorize(nobody, "7", false), ErrPermissionDenied)
	})

	t.Run("composer requires a reply-capable handler", func(t *testing.T) {
		require.NoError(t, store.SaveForm(&domain.Form{ID: "8", Title: "No handlers", OwnerID: "x"}))
		assert.ErrorIs(t, svc.Authorize(all, "8", true), ErrNoReplyHandler)
		// 历史页不要求处理器
		assert.NoError(t, svc.Authorize(all, "8", false))
	})
}

// TestHistoryWriteFailureStillReportsSent 历史写入失败不影响发送结果上报
func TestHistoryWriteFailureStillReportsSent(t *testing.T) {
	store := memory.NewStore()
	sender := &fakeSender{failFor: map[string]bool{}}
	fsStore := newFakeFileStore()
	failing := &failingReplyStore{Store: store}
	svc := NewReplyService(store, fsStore, sender, "site@example.com", nil)
	svc.replies = failing

	require.NoError(t, store.SaveForm(&domain.Form{ID: "7", Title: "t", EmailHandlers: 1}))
	require.NoError(t, store.SaveSubmission(&domain.Submission{ID: "42", FormID: "7"}))

	result, err := svc.Submit(context.Background(), "7", "42", validRequest())
	require.NoError(t, err)

	// 邮件视为已发送，仅历史缺失
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Notices, 1)
	assert.Equal(t, domain.NoticeStatus, result.Notices[0].Level)
}

// failingReplyStore 包装内存存储并让 SaveReply 恒定失败。
type failingReplyStore struct {
	*memory.Store
}

func (f *failingReplyStore) SaveReply(_ *domain.Reply) error {
	return errors.New("history store unavailable")
}
