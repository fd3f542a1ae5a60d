package domain

import (
	"strings"
	"time"
)

// Reply 表示一封已成功发出的回复邮件，仅追加、不可修改。
type Reply struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Seq          int64     `json:"seq" gorm:"autoIncrement;uniqueIndex"` // 插入顺序号，单调递增
	FormID       string    `json:"formId" gorm:"type:varchar(36);index:idx_reply_target;not null"`
	SubmissionID string    `json:"submissionId" gorm:"type:varchar(36);index:idx_reply_target;not null"`
	FromAddress  string    `json:"fromAddress" gorm:"type:varchar(255)"`
	ToAddress    string    `json:"toAddress" gorm:"type:varchar(255)"`
	Subject      string    `json:"subject" gorm:"type:varchar(500)"`
	Message      string    `json:"message" gorm:"type:text"`                    // 富文本正文，原样存储
	AttachmentID string    `json:"attachmentId,omitempty" gorm:"type:varchar(36)"` // 附件弱引用，可为空
	SentAt       time.Time `json:"sentAt" gorm:"index"`
}

// ReplyRequest 表示一次回复提交的临时输入，仅在处理期间存在，不持久化。
type ReplyRequest struct {
	FromAddress   string
	RecipientsRaw string // 逗号分隔的收件人原始字符串
	Subject       string
	Message       string
	FileID        string // 可选：已上传文件的ID
}

// Recipients 按逗号切分收件人列表。
// 刻意不去除空白、不过滤空段，与原有表单行为保持一致
// （表单提示用户"多个邮箱用逗号分隔，不要有空格"）。
func (r *ReplyRequest) Recipients() []string {
	return strings.Split(r.RecipientsRaw, ",")
}
