package httptransport

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/service"
	"formreply/backend/internal/storage"
)

// ReplyHandler 处理回复撰写、投递与历史相关的 HTTP 请求
type ReplyHandler struct {
	replies *service.ReplyService
	log     *zap.Logger
}

// NewReplyHandler 创建回复处理器
func NewReplyHandler(replies *service.ReplyService, log *zap.Logger) *ReplyHandler {
	return &ReplyHandler{
		replies: replies,
		log:     log,
	}
}

type submitReplyRequest struct {
	FromAddress string `form:"from_address" json:"fromAddress"`
	Email       string `form:"email" json:"email"` // 逗号分隔的收件人
	Subject     string `form:"subject" json:"subject"`
	Message     string `form:"message" json:"message"`
	FileID      string `form:"file_id" json:"fileId"`
}

// Compose godoc
// @Summary 获取回复撰写页预填数据
// @Description 返回默认发件人、默认主题以及历史回复链接
// @Tags Replies
// @Produce json
// @Param formID path string true "表单ID"
// @Param submissionID path string true "提交ID"
// @Success 200 {object} Response{data=service.ComposeView}
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /v1/forms/{formID}/submissions/{submissionID}/reply [get]
func (h *ReplyHandler) Compose(c *gin.Context) {
	formID := c.Param("formID")
	submissionID := c.Param("submissionID")

	view, err := h.replies.Compose(formID, submissionID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrSubmissionNotFound):
			NotFound(c, MsgSubmissionNotFound)
		case errors.Is(err, storage.ErrFormNotFound):
			NotFound(c, MsgFormNotFound)
		default:
			h.log.Error("failed to build compose view",
				zap.String("form_id", formID),
				zap.String("submission_id", submissionID),
				zap.Error(err),
			)
			InternalError(c, MsgComposeFailed)
		}
		return
	}

	Success(c, view)
}

// Submit godoc
// @Summary 提交并发送回复邮件
// @Description 校验表单后向每个收件人独立投递回复邮件，附件在发送前转为永久存储
// @Tags Replies
// @Accept mpfd
// @Produce json
// @Param formID path string true "表单ID"
// @Param submissionID path string true "提交ID"
// @Param from_address formData string true "发件人地址"
// @Param email formData string true "收件人地址，逗号分隔"
// @Param subject formData string true "主题"
// @Param message formData string true "正文（HTML）"
// @Param file_id formData string false "已上传附件的ID"
// @Success 200 {object} Response{data=service.DispatchResult}
// @Failure 404 {object} Response
// @Failure 422 {object} Response{data=service.DispatchResult}
// @Failure 500 {object} Response
// @Router /v1/forms/{formID}/submissions/{submissionID}/reply [post]
func (h *ReplyHandler) Submit(c *gin.Context) {
	var req submitReplyRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	formID := c.Param("formID")
	submissionID := c.Param("submissionID")

	if _, err := h.replies.Compose(formID, submissionID); err != nil {
		switch {
		case errors.Is(err, storage.ErrSubmissionNotFound):
			NotFound(c, MsgSubmissionNotFound)
		case errors.Is(err, storage.ErrFormNotFound):
			NotFound(c, MsgFormNotFound)
		default:
			InternalError(c, MsgDispatchFailed)
		}
		return
	}

	result, err := h.replies.Submit(c.Request.Context(), formID, submissionID, &domain.ReplyRequest{
		FromAddress:   req.FromAddress,
		RecipientsRaw: req.Email,
		Subject:       req.Subject,
		Message:       req.Message,
		FileID:        req.FileID,
	})
	if err != nil {
		if errors.Is(err, service.ErrAttachmentPromotion) {
			h.log.Error("attachment promotion failed, dispatch aborted",
				zap.String("form_id", formID),
				zap.String("submission_id", submissionID),
				zap.String("file_id", req.FileID),
				zap.Error(err),
			)
			InternalError(c, GetErrorMessage(service.ErrAttachmentPromotion))
			return
		}
		h.log.Error("reply dispatch failed",
			zap.String("form_id", formID),
			zap.String("submission_id", submissionID),
			zap.Error(err),
		)
		InternalError(c, MsgDispatchFailed)
		return
	}

	if result.Rejected() {
		UnprocessableEntity(c, MsgValidationFailed, result)
		return
	}

	Success(c, result)
}

// History godoc
// @Summary 获取历史回复表格
// @Description 按插入顺序分页返回某次提交的所有历史回复，默认倒序
// @Tags Replies
// @Produce json
// @Param formID path string true "表单ID"
// @Param submissionID path string true "提交ID"
// @Param page query int false "页码（默认1）"
// @Param page_size query int false "每页数量（默认20，最大100）"
// @Param sort query string false "排序方向 asc 或 desc（默认desc）"
// @Success 200 {object} Response{data=service.HistoryPage}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /v1/forms/{formID}/submissions/{submissionID}/replies [get]
func (h *ReplyHandler) History(c *gin.Context) {
	formID := c.Param("formID")
	submissionID := c.Param("submissionID")

	page, err := parseIntQuery(c, "page", 1)
	if err != nil {
		BadRequest(c, MsgInvalidPaging)
		return
	}
	pageSize, err := parseIntQuery(c, "page_size", 0)
	if err != nil {
		BadRequest(c, MsgInvalidPaging)
		return
	}

	if _, err := h.replies.Compose(formID, submissionID); err != nil {
		switch {
		case errors.Is(err, storage.ErrSubmissionNotFound):
			NotFound(c, MsgSubmissionNotFound)
		case errors.Is(err, storage.ErrFormNotFound):
			NotFound(c, MsgFormNotFound)
		default:
			InternalError(c, MsgHistoryFailed)
		}
		return
	}

	historyPage, err := h.replies.History(formID, submissionID, service.HistoryQuery{
		Page:     page,
		PageSize: pageSize,
		Sort:     c.Query("sort"),
	})
	if err != nil {
		h.log.Error("failed to load reply history",
			zap.String("form_id", formID),
			zap.String("submission_id", submissionID),
			zap.Error(err),
		)
		InternalError(c, MsgHistoryFailed)
		return
	}

	Success(c, historyPage)
}

// parseIntQuery 解析整数查询参数，缺省时返回 fallback
func parseIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
