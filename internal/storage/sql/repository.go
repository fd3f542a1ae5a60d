package sql

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/storage"
)

// ========== 回复历史 ==========

// SaveReply 追加一条回复记录。序号由数据库自增列分配。
func (s *Store) SaveReply(reply *domain.Reply) error {
	if reply.SentAt.IsZero() {
		reply.SentAt = time.Now().UTC()
	}
	return s.gormDB.Create(reply).Error
}

// ListReplies 按插入顺序返回指定提交的全部回复。
func (s *Store) ListReplies(formID, submissionID string) ([]domain.Reply, error) {
	var replies []domain.Reply
	err := s.gormDB.
		Where("form_id = ? AND submission_id = ?", formID, submissionID).
		Order("seq ASC").
		Find(&replies).Error
	return replies, err
}

// CountReplies 统计指定提交的回复数量。
func (s *Store) CountReplies(formID, submissionID string) (int, error) {
	var count int64
	err := s.gormDB.Model(&domain.Reply{}).
		Where("form_id = ? AND submission_id = ?", formID, submissionID).
		Count(&count).Error
	return int(count), err
}

// ========== 表单与提交 ==========

// SaveForm 保存表单定义。
func (s *Store) SaveForm(form *domain.Form) error {
	return s.gormDB.Save(form).Error
}

// GetForm 获取表单定义。
func (s *Store) GetForm(id string) (*domain.Form, error) {
	var form domain.Form
	err := s.gormDB.First(&form, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrFormNotFound
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// SaveSubmission 保存提交记录。
func (s *Store) SaveSubmission(submission *domain.Submission) error {
	return s.gormDB.Save(submission).Error
}

// GetSubmission 获取提交记录。
func (s *Store) GetSubmission(formID, submissionID string) (*domain.Submission, error) {
	var sub domain.Submission
	err := s.gormDB.First(&sub, "form_id = ? AND id = ?", formID, submissionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ========== 文件元数据 ==========

// SaveFile 保存上传文件的元数据。
func (s *Store) SaveFile(file *domain.StoredFile) error {
	return s.gormDB.Create(file).Error
}

// GetFile 获取文件元数据。
func (s *Store) GetFile(id string) (*domain.StoredFile, error) {
	var file domain.StoredFile
	err := s.gormDB.First(&file, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// UpdateFile 更新文件元数据。
func (s *Store) UpdateFile(file *domain.StoredFile) error {
	result := s.gormDB.Model(&domain.StoredFile{}).
		Where("id = ?", file.ID).
		Updates(map[string]interface{}{
			"storage_path": file.StoragePath,
			"permanent":    file.Permanent,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrFileNotFound
	}
	return nil
}

// ========== 账户 ==========

// CreateAccount 创建账户。
func (s *Store) CreateAccount(account *domain.Account) error {
	var count int64
	if err := s.gormDB.Model(&domain.Account{}).
		Where("id = ? OR username = ?", account.ID, account.Username).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return storage.ErrAccountExists
	}
	return s.gormDB.Create(account).Error
}

// GetAccountByID 按ID查找账户。
func (s *Store) GetAccountByID(id string) (*domain.Account, error) {
	var account domain.Account
	err := s.gormDB.First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByUsername 按用户名查找账户。
func (s *Store) GetAccountByUsername(username string) (*domain.Account, error) {
	var account domain.Account
	err := s.gormDB.First(&account, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateLastLogin 更新账户最近登录时间。
func (s *Store) UpdateLastLogin(accountID string) error {
	now := time.Now().UTC()
	result := s.gormDB.Model(&domain.Account{}).
		Where("id = ?", accountID).
		Update("last_login_at", &now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrAccountNotFound
	}
	return nil
}
