package domain

import "time"

// Submission 表示表单的一次提交记录。
type Submission struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FormID      string    `json:"formId" gorm:"type:varchar(36);index;not null"`
	SubmittedBy string    `json:"submittedBy" gorm:"type:varchar(255)"` // 提交者邮箱地址
	Data        string    `json:"data,omitempty" gorm:"type:text"`      // 提交内容（JSON，本服务不解析）
	CreatedAt   time.Time `json:"createdAt"`
}
