package domain

import "time"

// Form 表示一个表单定义。
type Form struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title         string    `json:"title" gorm:"type:varchar(255)"` // 标题，可能包含HTML标记
	OwnerID       string    `json:"ownerId" gorm:"type:varchar(36);index"`
	EmailHandlers int       `json:"emailHandlers" gorm:"default:0"` // 配置的邮件回复处理器数量
	CreatedAt     time.Time `json:"createdAt"`
}

// HasEmailHandler 判断表单是否配置了可回复的邮件处理器。
func (f *Form) HasEmailHandler() bool {
	return f.EmailHandlers > 0
}
