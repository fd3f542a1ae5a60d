package domain

import (
	"strings"
	"time"
)

// Permission 账户权限标识
type Permission string

const (
	// PermReplyAll 允许回复所有表单的提交
	PermReplyAll Permission = "reply_all"
	// PermReplyOwn 仅允许回复自己拥有的表单的提交
	PermReplyOwn Permission = "reply_own"
)

// Account 表示一个可登录的后台账户。
type Account struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" gorm:"type:varchar(64);uniqueIndex"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"`
	Permissions  string    `json:"permissions" gorm:"type:varchar(255)"` // 逗号分隔的权限列表
	Locale       string    `json:"locale" gorm:"type:varchar(16);default:'en'"`
	IsActive     bool      `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// HasPermission 判断账户是否持有指定权限。
func (a *Account) HasPermission(perm Permission) bool {
	for _, p := range splitPermissions(a.Permissions) {
		if p == string(perm) {
			return true
		}
	}
	return false
}

// CanReply 回复权限判定：持有 reply_all，或持有 reply_own 且是该表单的所有者。
func (a *Account) CanReply(form *Form) bool {
	if a.HasPermission(PermReplyAll) {
		return true
	}
	if a.HasPermission(PermReplyOwn) && form != nil && form.OwnerID == a.ID {
		return true
	}
	return false
}

// PermissionList 返回账户的权限切片。
func (a *Account) PermissionList() []string {
	return splitPermissions(a.Permissions)
}

func splitPermissions(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
