package httptransport

import (
	"formreply/backend/internal/service"
	"formreply/backend/internal/storage"
	"formreply/backend/internal/storage/filesystem"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	// 资源错误
	storage.ErrFormNotFound:       "表单不存在",
	storage.ErrSubmissionNotFound: "提交记录不存在",
	storage.ErrFileNotFound:       "文件不存在",
	storage.ErrAccountNotFound:    "账户不存在",
	filesystem.ErrFileMissing:     "文件已被删除",

	// 回复错误
	service.ErrAttachmentPromotion: "附件保存失败，回复未发送",
	service.ErrNoReplyHandler:      "该表单未配置可回复的邮件处理器",
	service.ErrPermissionDenied:    "权限不足",
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest   = "请求参数格式错误"
	MsgInvalidPaging    = "分页参数无效"
	MsgRequestBodyEmpty = "请求体不能为空"

	// 认证相关
	MsgAuthRequired       = "需要登录认证"
	MsgInvalidCredentials = "用户名或密码错误"
	MsgTokenExpired       = "登录已过期，请重新登录"
	MsgTokenInvalid       = "无效的访问令牌"
	MsgPermissionDenied   = "权限不足"

	// 表单与提交相关
	MsgFormNotFound       = "表单不存在"
	MsgSubmissionNotFound = "提交记录不存在"

	// 回复相关
	MsgComposeFailed    = "加载回复页面失败"
	MsgDispatchFailed   = "回复发送失败，请稍后重试"
	MsgValidationFailed = "表单校验未通过"
	MsgHistoryFailed    = "获取回复历史失败"

	// 附件相关
	MsgFileUploadFailed = "上传文件失败"
	MsgFileNotFound     = "文件不存在"
	MsgFileReadFailed   = "读取文件失败"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)
