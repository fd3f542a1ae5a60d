package domain

import "time"

// StoredFile 表示一个上传文件的元数据，文件内容由文件系统存储层持有。
type StoredFile struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Filename    string    `json:"filename" gorm:"type:varchar(255)"`
	ContentType string    `json:"contentType" gorm:"type:varchar(100)"`
	Size        int64     `json:"size"`
	StoragePath string    `json:"storagePath,omitempty" gorm:"type:varchar(500)"` // 相对存储路径
	Permanent   bool      `json:"permanent" gorm:"default:false;index"`           // 是否已转为永久存储
	CreatedAt   time.Time `json:"createdAt"`
}
