package auth

import (
	"errors"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/storage"
)

var (
	// ErrInvalidCredentials 凭证无效
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive 账户已被禁用
	ErrAccountInactive = errors.New("account is inactive")
)

// Service 认证服务。账户由管理员预置（cmd/create-admin），不提供自助注册。
type Service struct {
	accounts storage.AccountRepository
}

// NewService 创建认证服务
func NewService(accounts storage.AccountRepository) *Service {
	return &Service{accounts: accounts}
}

// Login 用户名密码登录，返回账户。
func (s *Service) Login(username, password string) (*domain.Account, error) {
	account, err := s.accounts.GetAccountByUsername(username)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	// 登录时间更新失败不影响登录本身
	_ = s.accounts.UpdateLastLogin(account.ID)

	return account, nil
}

// Resolve 按令牌声明中的账户ID取回账户，供中间件使用。
func (s *Service) Resolve(accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrAccountInactive
	}
	return account, nil
}
