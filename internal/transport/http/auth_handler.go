package httptransport

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"formreply/backend/internal/auth"
	jwtpkg "formreply/backend/internal/auth/jwt"
	"formreply/backend/internal/middleware"
)

// AuthHandler 处理认证相关的 HTTP 请求
type AuthHandler struct {
	authService *auth.Service   // 认证业务服务
	jwtManager  *jwtpkg.Manager // JWT 令牌管理器
	log         *zap.Logger     // 结构化日志记录器
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *auth.Service, jwtManager *jwtpkg.Manager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtManager:  jwtManager,
		log:         log,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type accountResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email,omitempty"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"isActive"`
}

type authResponse struct {
	Account      accountResponse `json:"account"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	ExpiresIn    int64           `json:"expiresIn"`
}

// Login 处理登录请求
// @Summary 账户登录
// @Description 使用用户名和密码进行身份验证，成功后返回认证令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录凭证"
// @Success 200 {object} authResponse "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "用户名或密码错误"
// @Failure 403 {object} Response "账户已被禁用"
// @Failure 500 {object} Response "服务器内部错误"
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	account, err := h.authService.Login(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			Unauthorized(c, MsgInvalidCredentials)
		case errors.Is(err, auth.ErrAccountInactive):
			Forbidden(c, "账户已被禁用")
		default:
			h.log.Error("failed to login", zap.Error(err))
			InternalError(c, "登录失败，请稍后重试")
		}
		return
	}

	tokens, err := h.jwtManager.GenerateTokenPair(account.ID, account.Username)
	if err != nil {
		h.log.Error("failed to generate tokens", zap.Error(err))
		InternalError(c, "生成令牌失败")
		return
	}

	h.log.Info("account logged in",
		zap.String("account_id", account.ID),
		zap.String("username", account.Username),
	)

	Success(c, authResponse{
		Account:      toAccountResponse(account.ID, account.Username, account.Email, account.PermissionList(), account.IsActive),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

// Refresh 刷新访问令牌
// @Summary 刷新访问令牌
// @Description 使用刷新令牌获取新的访问令牌，避免重新登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body refreshRequest true "包含刷新令牌的请求"
// @Success 200 {object} object{accessToken=string,expiresIn=int} "新的访问令牌"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "刷新令牌无效或已过期"
// @Failure 500 {object} Response "服务器内部错误"
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	accessToken, err := h.jwtManager.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, jwtpkg.ErrExpiredToken):
			Unauthorized(c, MsgTokenExpired)
		case errors.Is(err, jwtpkg.ErrInvalidToken):
			Unauthorized(c, "刷新令牌无效")
		default:
			h.log.Error("failed to refresh token", zap.Error(err))
			InternalError(c, "刷新令牌失败")
		}
		return
	}

	Success(c, gin.H{
		"accessToken": accessToken,
		"expiresIn":   int64(15 * 60), // 15 分钟
	})
}

// Me 获取当前账户信息
// @Summary 获取当前账户信息
// @Description 获取已认证账户的详细信息，需要有效的访问令牌
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} accountResponse "账户信息"
// @Failure 401 {object} Response "未认证或令牌无效"
// @Router /v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	account := middleware.AccountFromContext(c)
	if account == nil {
		Unauthorized(c, MsgAuthRequired)
		return
	}

	Success(c, toAccountResponse(account.ID, account.Username, account.Email, account.PermissionList(), account.IsActive))
}

func toAccountResponse(id, username, email string, permissions []string, isActive bool) accountResponse {
	return accountResponse{
		ID:          id,
		Username:    username,
		Email:       email,
		Permissions: permissions,
		IsActive:    isActive,
	}
}
