package storage

import (
	"errors"

	"formreply/backend/internal/domain"
)

var (
	// ErrFormNotFound 表单未找到错误
	ErrFormNotFound = errors.New("form not found")
	// ErrSubmissionNotFound 提交记录未找到错误
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrFileNotFound 文件元数据未找到错误
	ErrFileNotFound = errors.New("file not found")
	// ErrAccountNotFound 账户未找到错误
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists 账户已存在错误
	ErrAccountExists = errors.New("account already exists")
)

// ReplyRepository 定义回复历史的数据存取操作。仅追加：不提供更新和删除。
type ReplyRepository interface {
	SaveReply(reply *domain.Reply) error
	ListReplies(formID, submissionID string) ([]domain.Reply, error)
	CountReplies(formID, submissionID string) (int, error)
}

// FormRepository 定义表单定义的数据存取操作。
type FormRepository interface {
	SaveForm(form *domain.Form) error
	GetForm(id string) (*domain.Form, error)
}

// SubmissionRepository 定义表单提交的数据存取操作。
type SubmissionRepository interface {
	SaveSubmission(submission *domain.Submission) error
	GetSubmission(formID, submissionID string) (*domain.Submission, error)
}

// FileRepository 定义上传文件元数据的存取操作。
type FileRepository interface {
	SaveFile(file *domain.StoredFile) error
	GetFile(id string) (*domain.StoredFile, error)
	UpdateFile(file *domain.StoredFile) error
}

// AccountRepository 定义账户数据存取操作。
type AccountRepository interface {
	CreateAccount(account *domain.Account) error
	GetAccountByID(id string) (*domain.Account, error)
	GetAccountByUsername(username string) (*domain.Account, error)
	UpdateLastLogin(accountID string) error
}

// Store 定义完整的存储接口。
type Store interface {
	ReplyRepository
	FormRepository
	SubmissionRepository
	FileRepository
	AccountRepository

	// 工具方法
	Close() error
	Health() error
}
