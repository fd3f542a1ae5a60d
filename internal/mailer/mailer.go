// Package mailer 实现对外的回复邮件投递。
package mailer

import "context"

// 附件存在时随邮件附带的固定头部集合。
const (
	HeaderMIMEVersion             = "MIME-Version"
	HeaderContentType             = "Content-Type"
	HeaderContentTransferEncoding = "Content-Transfer-Encoding"
	HeaderMailer                  = "X-Mailer"

	MIMEVersionValue  = "1.0"
	ContentTypeValue  = "text/html; charset=UTF-8; format=flowed; delsp=yes"
	TransferEncoding  = "8Bit"
	MailerIdentifier  = "FormReply"
)

// AttachmentHeaders 返回附件存在时使用的固定头部集合。
func AttachmentHeaders() map[string]string {
	return map[string]string{
		HeaderMIMEVersion:             MIMEVersionValue,
		HeaderContentType:             ContentTypeValue,
		HeaderContentTransferEncoding: TransferEncoding,
		HeaderMailer:                  MailerIdentifier,
	}
}

// Attachment 单个附件载荷。
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
	StoragePath string // 永久存储中的路径，仅作记录
}

// Email 一封待发送的回复邮件。
type Email struct {
	To         string
	From       string
	Subject    string
	HTMLBody   string
	Attachment *Attachment       // 可选，最多一个
	Headers    map[string]string // 附加头部；仅在有附件时由调用方填充
}

// Sender 邮件传输接口。实现方负责实际投递，调用方不重试。
type Sender interface {
	Send(ctx context.Context, email *Email) error
}
