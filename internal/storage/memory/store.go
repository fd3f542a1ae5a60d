package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/storage"
)

// Store 内存存储实现，用于开发环境和测试。
type Store struct {
	mu sync.RWMutex

	replies     []domain.Reply
	nextSeq     int64
	forms       map[string]*domain.Form
	submissions map[string]*domain.Submission // key: formID/submissionID
	files       map[string]*domain.StoredFile
	accounts    map[string]*domain.Account
}

// NewStore 创建内存存储实例。
func NewStore() *Store {
	return &Store{
		nextSeq:     1,
		forms:       make(map[string]*domain.Form),
		submissions: make(map[string]*domain.Submission),
		files:       make(map[string]*domain.StoredFile),
		accounts:    make(map[string]*domain.Account),
	}
}

// ========== 回复历史 ==========

// SaveReply 追加一条回复记录，插入时分配单调递增的序号和发送时间。
func (s *Store) SaveReply(reply *domain.Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply.Seq = s.nextSeq
	s.nextSeq++
	if reply.SentAt.IsZero() {
		reply.SentAt = time.Now().UTC()
	}

	s.replies = append(s.replies, *reply)
	return nil
}

// ListReplies 按插入顺序返回指定提交的全部回复。
func (s *Store) ListReplies(formID, submissionID string) ([]domain.Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Reply
	for _, r := range s.replies {
		if r.FormID == formID && r.SubmissionID == submissionID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// CountReplies 统计指定提交的回复数量。
func (s *Store) CountReplies(formID, submissionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.replies {
		if r.FormID == formID && r.SubmissionID == submissionID {
			count++
		}
	}
	return count, nil
}

// ========== 表单与提交 ==========

// SaveForm 保存表单定义。
func (s *Store) SaveForm(form *domain.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forms[form.ID] = form
	return nil
}

// GetForm 获取表单定义。
func (s *Store) GetForm(id string) (*domain.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form, ok := s.forms[id]
	if !ok {
		return nil, storage.ErrFormNotFound
	}
	return form, nil
}

// SaveSubmission 保存提交记录。
func (s *Store) SaveSubmission(submission *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submissions[submissionKey(submission.FormID, submission.ID)] = submission
	return nil
}

// GetSubmission 获取提交记录。
func (s *Store) GetSubmission(formID, submissionID string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[submissionKey(formID, submissionID)]
	if !ok {
		return nil, storage.ErrSubmissionNotFound
	}
	return sub, nil
}

// ========== 文件元数据 ==========

// SaveFile 保存上传文件的元数据。
func (s *Store) SaveFile(file *domain.StoredFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[file.ID] = file
	return nil
}

// GetFile 获取文件元数据。
func (s *Store) GetFile(id string) (*domain.StoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	return file, nil
}

// UpdateFile 更新文件元数据（如转为永久存储后的路径和标记）。
func (s *Store) UpdateFile(file *domain.StoredFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[file.ID]; !ok {
		return storage.ErrFileNotFound
	}
	s.files[file.ID] = file
	return nil
}

// ========== 账户 ==========

// CreateAccount 创建账户。
func (s *Store) CreateAccount(account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; ok {
		return storage.ErrAccountExists
	}
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Username, account.Username) {
			return storage.ErrAccountExists
		}
	}
	s.accounts[account.ID] = account
	return nil
}

// GetAccountByID 按ID查找账户。
func (s *Store) GetAccountByID(id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	return account, nil
}

// GetAccountByUsername 按用户名查找账户。
func (s *Store) GetAccountByUsername(username string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if strings.EqualFold(account.Username, username) {
			return account, nil
		}
	}
	return nil, storage.ErrAccountNotFound
}

// UpdateLastLogin 更新账户最近登录时间。
func (s *Store) UpdateLastLogin(accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return storage.ErrAccountNotFound
	}
	now := time.Now().UTC()
	account.LastLoginAt = &now
	return nil
}

// Close 关闭存储（内存实现为空操作）。
func (s *Store) Close() error {
	return nil
}

// Health 健康检查（内存实现始终健康）。
func (s *Store) Health() error {
	return nil
}

func submissionKey(formID, submissionID string) string {
	return formID + "/" + submissionID
}
