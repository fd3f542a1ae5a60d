package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"
)

// SMTPConfig 外发 SMTP 中继配置
type SMTPConfig struct {
	Addr     string // 中继地址，格式 "host:port"
	Username string // 认证用户名，留空表示匿名
	Password string
	UseTLS   bool // 使用隐式 TLS（465端口），否则走 STARTTLS
}

// SMTPSender 通过 SMTP 中继投递邮件。
type SMTPSender struct {
	cfg SMTPConfig
	log *zap.Logger
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender 创建 SMTP 投递器。
func NewSMTPSender(cfg SMTPConfig, log *zap.Logger) *SMTPSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &SMTPSender{cfg: cfg, log: log}
}

// Send 投递单封邮件。同步阻塞，不重试；失败与否由调用方逐收件人处理。
func (s *SMTPSender) Send(ctx context.Context, email *Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth sasl.Client
	if s.cfg.Username != "" {
		auth = sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	}

	msg := buildMessage(email)

	var err error
	if s.cfg.UseTLS {
		err = gosmtp.SendMailTLS(s.cfg.Addr, auth, email.From, []string{email.To}, bytes.NewReader(msg))
	} else {
		err = gosmtp.SendMail(s.cfg.Addr, auth, email.From, []string{email.To}, bytes.NewReader(msg))
	}
	if err != nil {
		s.log.Warn("smtp delivery failed",
			zap.String("to", email.To),
			zap.String("relay", s.cfg.Addr),
			zap.Error(err),
		)
		return fmt.Errorf("smtp send to %s: %w", email.To, err)
	}

	s.log.Debug("smtp delivery succeeded",
		zap.String("to", email.To),
		zap.Int("bytes", len(msg)),
	)
	return nil
}
