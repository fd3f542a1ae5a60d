package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/mailer"
	"formreply/backend/internal/storage"
)

var (
	// ErrAttachmentPromotion 附件转为永久存储失败，整个提交动作终止
	ErrAttachmentPromotion = errors.New("failed to promote attachment to permanent storage")
	// ErrNoReplyHandler 表单没有配置可回复的邮件处理器
	ErrNoReplyHandler = errors.New("form has no reply-capable email handler")
	// ErrPermissionDenied 账户没有回复权限
	ErrPermissionDenied = errors.New("account is not allowed to send replies")
)

// FileStore 文件系统存储接口（上传文件的字节由它持有）。
type FileStore interface {
	Promote(fileID string) (string, error)
	ReadBytes(fileID string) ([]byte, error)
	ResolveURL(fileID string) (string, error)
	RealPath(fileID string) (string, error)
}

// ReplyMetrics 回复投递指标回调接口。
type ReplyMetrics interface {
	RecordReplySent()
	RecordReplyFailed()
}

// ReplyService 封装回复的撰写、校验、投递与历史查询。
type ReplyService struct {
	replies     storage.ReplyRepository
	forms       storage.FormRepository
	submissions storage.SubmissionRepository
	files       storage.FileRepository
	fsStore     FileStore
	sender      mailer.Sender
	defaultFrom string // 站点默认发件地址，构造时显式注入
	metrics     ReplyMetrics
	log         *zap.Logger
}

// NewReplyService 创建回复业务服务。
func NewReplyService(
	store storage.Store,
	fsStore FileStore,
	sender mailer.Sender,
	defaultFrom string,
	log *zap.Logger,
) *ReplyService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReplyService{
		replies:     store,
		forms:       store,
		submissions: store,
		files:       store,
		fsStore:     fsStore,
		sender:      sender,
		defaultFrom: defaultFrom,
		log:         log,
	}
}

// SetMetrics 设置投递指标回调。
func (s *ReplyService) SetMetrics(metrics ReplyMetrics) {
	s.metrics = metrics
}

// Authorize 回复访问判定：账户需持有回复权限；requireHandler 为真时
// （撰写与提交路径）表单还必须配置至少一个邮件处理器。
func (s *ReplyService) Authorize(account *domain.Account, formID string, requireHandler bool) error {
	form, err := s.forms.GetForm(formID)
	if err != nil {
		return err
	}
	if requireHandler && !form.HasEmailHandler() {
		return ErrNoReplyHandler
	}
	if !account.CanReply(form) {
		return ErrPermissionDenied
	}
	return nil
}

// ComposeView 撰写页的预填数据。
type ComposeView struct {
	FormID       string `json:"formId"`
	SubmissionID string `json:"submissionId"`
	FromAddress  string `json:"fromAddress"`
	Subject      string `json:"subject"`
	RepliesCount int    `json:"repliesCount"`
	HistoryLabel string `json:"historyLabel,omitempty"` // 历史链接文案，无历史时为空
	HistoryURL   string `json:"historyUrl,omitempty"`
}

// Compose 组装撰写页预填数据：默认发件人、默认主题（RE: + 去标记标题）、
// 历史回复数量及链接（仅在已有回复时给出）。
func (s *ReplyService) Compose(formID, submissionID string) (*ComposeView, error) {
	if _, err := s.submissions.GetSubmission(formID, submissionID); err != nil {
		return nil, err
	}

	form, err := s.forms.GetForm(formID)
	if err != nil {
		return nil, err
	}

	count, err := s.replies.CountReplies(formID, submissionID)
	if err != nil {
		return nil, err
	}

	view := &ComposeView{
		FormID:       formID,
		SubmissionID: submissionID,
		FromAddress:  s.defaultFrom,
		Subject:      domain.DefaultSubject(form.Title),
		RepliesCount: count,
	}
	if count > 0 {
		view.HistoryLabel = PreviousRepliesLabel(count)
		view.HistoryURL = fmt.Sprintf("/v1/forms/%s/submissions/%s/replies", formID, submissionID)
	}
	return view, nil
}

// PreviousRepliesLabel 历史回复链接文案，区分单复数。
func PreviousRepliesLabel(count int) string {
	switch {
	case count <= 0:
		return ""
	case count == 1:
		return "1 previous reply"
	default:
		return fmt.Sprintf("%d previous replies", count)
	}
}

// Validate 校验一次回复提交。两个地址字段总是都会被检查；
// 每个字段只记录第一个非法地址。返回空切片表示可以进入投递。
func (s *ReplyService) Validate(req *domain.ReplyRequest) []*domain.FieldError {
	var fieldErrors []*domain.FieldError
	validator := domain.NewEmailValidator()

	if req.FromAddress == "" {
		fieldErrors = append(fieldErrors, domain.NewRequiredError("from_address"))
	} else if !validator.IsValid(req.FromAddress) {
		fieldErrors = append(fieldErrors, domain.NewAddressError("from_address", req.FromAddress))
	}

	if req.RecipientsRaw == "" {
		fieldErrors = append(fieldErrors, domain.NewRequiredError("email"))
	} else {
		for _, addr := range req.Recipients() {
			if !validator.IsValid(addr) {
				fieldErrors = append(fieldErrors, domain.NewAddressError("email", addr))
				break
			}
		}
	}

	if req.Subject == "" {
		fieldErrors = append(fieldErrors, domain.NewRequiredError("subject"))
	}
	if req.Message == "" {
		fieldErrors = append(fieldErrors, domain.NewRequiredError("message"))
	}

	return fieldErrors
}

// DispatchResult 一次提交的处理结果。
type DispatchResult struct {
	FieldErrors []*domain.FieldError `json:"fieldErrors,omitempty"`
	Notices     []domain.Notice      `json:"notices,omitempty"`
	Sent        int                  `json:"sent"`
	Failed      int                  `json:"failed"`
}

// Rejected 判断提交是否因校验失败被整体拒绝。
func (r *DispatchResult) Rejected() bool {
	return len(r.FieldErrors) > 0
}

// Submit 处理一次回复提交：校验 → （有附件时）附件转永久 → 逐收件人投递并记录历史。
//
// 校验失败时不产生任何副作用。附件提升失败对整次提交是致命的，什么都不会发送；
// 但提升本身没有回滚，即使后续全部发送失败文件也保持永久。
// 每个收件人独立处理：单个失败只产生一条错误通知，不写历史、不中断其余收件人。
func (s *ReplyService) Submit(ctx context.Context, formID, submissionID string, req *domain.ReplyRequest) (*DispatchResult, error) {
	result := &DispatchResult{}

	if result.FieldErrors = s.Validate(req); len(result.FieldErrors) > 0 {
		return result, nil
	}

	attachment, attachmentID, err := s.prepareAttachment(req.FileID)
	if err != nil {
		return nil, err
	}

	var headers map[string]string
	if attachment != nil {
		headers = mailer.AttachmentHeaders()
	}

	notices := &domain.Notices{}
	for _, recipient := range req.Recipients() {
		email := &mailer.Email{
			To:         recipient,
			From:       req.FromAddress,
			Subject:    req.Subject,
			HTMLBody:   req.Message,
			Attachment: attachment,
			Headers:    headers,
		}

		if err := s.sender.Send(ctx, email); err != nil {
			result.Failed++
			if s.metrics != nil {
				s.metrics.RecordReplyFailed()
			}
			notices.AddError(recipient, fmt.Sprintf("发送至 %s 时出错，请联系站点管理员", recipient))
			s.log.Warn("reply delivery failed",
				zap.String("form_id", formID),
				zap.String("submission_id", submissionID),
				zap.String("to", recipient),
				zap.Error(err),
			)
			continue
		}

		result.Sent++
		if s.metrics != nil {
			s.metrics.RecordReplySent()
		}
		notices.AddStatus(recipient, fmt.Sprintf("回复邮件已由 %s 发送至 %s", req.FromAddress, recipient))

		reply := &domain.Reply{
			ID:           uuid.NewString(),
			FormID:       formID,
			SubmissionID: submissionID,
			FromAddress:  req.FromAddress,
			ToAddress:    recipient,
			Subject:      req.Subject,
			Message:      req.Message,
			AttachmentID: attachmentID,
			SentAt:       time.Now().UTC(),
		}
		if err := s.replies.SaveReply(reply); err != nil {
			// 邮件已经发出：历史缺一条记录是可接受的已知缺口，
			// 只记日志供人工对账，不向用户报错。
			s.log.Error("reply sent but history write failed",
				zap.String("form_id", formID),
				zap.String("submission_id", submissionID),
				zap.String("to", recipient),
				zap.Error(err),
			)
		}
	}

	result.Notices = notices.Items()
	return result, nil
}

// prepareAttachment 将上传文件转为永久存储并组装附件载荷。
// fileID 为空时返回 (nil, "", nil)。
func (s *ReplyService) prepareAttachment(fileID string) (*mailer.Attachment, string, error) {
	if fileID == "" {
		return nil, "", nil
	}

	file, err := s.files.GetFile(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrAttachmentPromotion, err)
	}

	permanentPath, err := s.fsStore.Promote(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrAttachmentPromotion, err)
	}

	file.Permanent = true
	file.StoragePath = permanentPath
	if err := s.files.UpdateFile(file); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrAttachmentPromotion, err)
	}

	content, err := s.fsStore.ReadBytes(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrAttachmentPromotion, err)
	}

	realPath, err := s.fsStore.RealPath(fileID)
	if err != nil {
		realPath = permanentPath
	}

	return &mailer.Attachment{
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Content:     content,
		StoragePath: realPath,
	}, fileID, nil
}
