package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"formreply/backend/internal/service"
	"formreply/backend/internal/storage"
	"formreply/backend/internal/storage/filesystem"
)

// FileHandler 处理附件上传与下载
type FileHandler struct {
	files *service.FileService
	log   *zap.Logger
}

// NewFileHandler 创建附件处理器
func NewFileHandler(files *service.FileService, log *zap.Logger) *FileHandler {
	return &FileHandler{
		files: files,
		log:   log,
	}
}

type fileResponse struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Permanent   bool   `json:"permanent"`
}

// Upload godoc
// @Summary 上传附件
// @Description 上传一个文件到临时区，返回文件ID供回复提交时引用
// @Tags Files
// @Accept mpfd
// @Produce json
// @Param file formData file true "上传文件"
// @Success 201 {object} Response{data=fileResponse}
// @Failure 400 {object} Response
// @Failure 500 {object} Response
// @Router /v1/files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	src, err := header.Open()
	if err != nil {
		h.log.Error("failed to open uploaded file", zap.Error(err))
		InternalError(c, MsgFileUploadFailed)
		return
	}
	defer src.Close()

	file, err := h.files.Upload(header.Filename, header.Header.Get("Content-Type"), src)
	if err != nil {
		h.log.Error("failed to store uploaded file",
			zap.String("filename", header.Filename),
			zap.Error(err),
		)
		InternalError(c, MsgFileUploadFailed)
		return
	}

	Created(c, fileResponse{
		ID:          file.ID,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Size:        file.Size,
		Permanent:   file.Permanent,
	})
}

// Download godoc
// @Summary 下载附件
// @Description 按文件ID下载附件内容
// @Tags Files
// @Produce application/octet-stream
// @Param fileID path string true "文件ID"
// @Success 200 {file} binary
// @Failure 404 {object} Response
// @Failure 500 {object} Response
// @Router /v1/files/{fileID} [get]
func (h *FileHandler) Download(c *gin.Context) {
	fileID := c.Param("fileID")

	file, path, err := h.files.Open(fileID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileNotFound), errors.Is(err, filesystem.ErrFileMissing):
			NotFound(c, MsgFileNotFound)
		default:
			h.log.Error("failed to open file for download",
				zap.String("file_id", fileID),
				zap.Error(err),
			)
			InternalError(c, MsgFileReadFailed)
		}
		return
	}

	// 附件下载不使用统一响应格式，直接返回文件流
	if file.ContentType != "" {
		c.Header("Content-Type", file.ContentType)
	}
	c.FileAttachment(path, file.Filename)
}
