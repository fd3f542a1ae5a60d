package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// 验证相关的错误定义
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmailTooLong     = errors.New("email address too long")
	ErrLocalPartTooLong = errors.New("local part too long (max 64 chars)")
	ErrDomainTooLong    = errors.New("domain too long (max 253 chars)")
	ErrInvalidLocalPart = errors.New("invalid local part format")
	ErrInvalidDomain    = errors.New("invalid domain format")
)

// RFC 5322 邮箱地址长度限制
const (
	MaxEmailLength     = 254 // 整个邮箱地址最大长度
	MaxLocalPartLength = 64  // 本地部分最大长度(@前面)
	MaxDomainLength    = 253 // 域名最大长度
)

var (
	localPartRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

	// 域名验证（支持子域名）
	domainRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,61}[a-zA-Z0-9]?(\.[a-zA-Z0-9][a-zA-Z0-9-]{0,61}[a-zA-Z0-9]?)*$`)

	// HTML标签匹配，用于标题去标记
	tagRegex = regexp.MustCompile(`<[^>]*>`)
)

// EmailValidator 邮箱地址验证器
type EmailValidator struct{}

// NewEmailValidator 创建邮箱地址验证器
func NewEmailValidator() *EmailValidator {
	return &EmailValidator{}
}

// ValidateEmail 完整验证邮箱地址
func (v *EmailValidator) ValidateEmail(email string) error {
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}

	// 使用标准库进行基础格式验证
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ErrInvalidEmail
	}
	localPart := email[:at]
	domainPart := email[at+1:]

	if err := v.validateLocalPart(localPart); err != nil {
		return err
	}
	return v.validateDomain(domainPart)
}

// IsValid ValidateEmail 的布尔形式。
func (v *EmailValidator) IsValid(email string) bool {
	return v.ValidateEmail(email) == nil
}

func (v *EmailValidator) validateLocalPart(localPart string) error {
	if localPart == "" {
		return ErrInvalidLocalPart
	}
	if len(localPart) > MaxLocalPartLength {
		return ErrLocalPartTooLong
	}
	if !localPartRegex.MatchString(localPart) {
		return ErrInvalidLocalPart
	}
	// 不允许连续的点
	if strings.Contains(localPart, "..") {
		return ErrInvalidLocalPart
	}
	return nil
}

func (v *EmailValidator) validateDomain(domainPart string) error {
	if domainPart == "" {
		return ErrInvalidDomain
	}
	if len(domainPart) > MaxDomainLength {
		return ErrDomainTooLong
	}
	if !strings.Contains(domainPart, ".") {
		return ErrInvalidDomain
	}
	if !domainRegex.MatchString(domainPart) {
		return ErrInvalidDomain
	}
	for _, label := range strings.Split(domainPart, ".") {
		if len(label) > 63 {
			return ErrInvalidDomain
		}
	}
	return nil
}

// StripTags 去除字符串中的HTML标记。
func StripTags(s string) string {
	return tagRegex.ReplaceAllString(s, "")
}

// DefaultSubject 根据表单标题生成默认回复主题："RE: " + 去标记后的标题。
func DefaultSubject(title string) string {
	return "RE: " + StripTags(title)
}

// FieldError 表示绑定到某个表单字段的校验错误。
type FieldError struct {
	Field   string `json:"field"`
	Address string `json:"address,omitempty"` // 引发错误的邮箱地址
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewAddressError 创建指向具体非法地址的字段错误。
func NewAddressError(field, address string) *FieldError {
	return &FieldError{
		Field:   field,
		Address: address,
		Message: fmt.Sprintf("邮箱地址 %q 无效，请输入有效的邮箱地址", address),
	}
}

// NewRequiredError 创建必填字段缺失错误。
func NewRequiredError(field string) *FieldError {
	return &FieldError{
		Field:   field,
		Message: "该字段为必填项",
	}
}
