package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/service"
	"formreply/backend/internal/storage"
)

// FormAccess 表单回复权限中间件
//
// 在 JWT 认证之后运行，根据路径中的 formID 判断当前账号
// 是否有权访问回复功能。requireHandler 为真时还要求表单
// 配置了可回复的邮件处理器。
type FormAccess struct {
	replies *service.ReplyService
	log     *zap.Logger
}

// NewFormAccess 创建表单权限中间件
func NewFormAccess(replies *service.ReplyService, log *zap.Logger) *FormAccess {
	return &FormAccess{replies: replies, log: log}
}

// RequireReplyAccess 要求回复权限
func (fa *FormAccess) RequireReplyAccess(requireHandler bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := AccountFromContext(c)
		if account == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			c.Abort()
			return
		}

		formID := c.Param("formID")
		err := fa.replies.Authorize(account, formID, requireHandler)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, storage.ErrFormNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "form not found",
			})
			c.Abort()
		case errors.Is(err, service.ErrNoReplyHandler):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "form has no reply-capable email handler",
			})
			c.Abort()
		case errors.Is(err, service.ErrPermissionDenied):
			fa.log.Warn("reply access denied",
				zap.String("account_id", account.ID),
				zap.String("form_id", formID),
			)
			c.JSON(http.StatusForbidden, gin.H{
				"error": "access denied",
			})
			c.Abort()
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
			})
			c.Abort()
		}
	}
}

// AccountFromContext 从上下文中取出认证后的账号，未认证时返回 nil
func AccountFromContext(c *gin.Context) *domain.Account {
	value, exists := c.Get(ContextKeyAccount)
	if !exists {
		return nil
	}
	account, ok := value.(*domain.Account)
	if !ok {
		return nil
	}
	return account
}
