package service

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"formreply/backend/internal/domain"
	"formreply/backend/internal/storage"
	"formreply/backend/internal/storage/filesystem"
)

// FileService 负责附件的上传接收与下载定位。
// 新上传的文件落在临时区，只有被某次回复引用后才转为永久。
type FileService struct {
	files   storage.FileRepository
	fsStore *filesystem.Store
	log     *zap.Logger
}

// NewFileService 创建附件业务服务
func NewFileService(files storage.FileRepository, fsStore *filesystem.Store, log *zap.Logger) *FileService {
	return &FileService{
		files:   files,
		fsStore: fsStore,
		log:     log,
	}
}

// Upload 接收一个上传文件：字节写入临时区，元数据入库。
func (s *FileService) Upload(filename, contentType string, content io.Reader) (*domain.StoredFile, error) {
	fileID := uuid.NewString()

	relPath, size, err := s.fsStore.SaveUpload(fileID, filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	file := &domain.StoredFile{
		ID:          fileID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StoragePath: relPath,
		Permanent:   false,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.files.SaveFile(file); err != nil {
		return nil, fmt.Errorf("failed to save file metadata: %w", err)
	}

	s.log.Info("file uploaded",
		zap.String("file_id", fileID),
		zap.String("filename", filename),
		zap.Int64("size", size),
	)
	return file, nil
}

// Open 返回文件元数据及其磁盘绝对路径，供下载使用。
func (s *FileService) Open(fileID string) (*domain.StoredFile, string, error) {
	file, err := s.files.GetFile(fileID)
	if err != nil {
		return nil, "", err
	}

	path, err := s.fsStore.RealPath(fileID)
	if err != nil {
		return nil, "", err
	}
	return file, path, nil
}

// SweepTemp 清理早于 cutoff 的临时文件，返回清理数量。
func (s *FileService) SweepTemp(cutoff time.Time) (int, error) {
	return s.fsStore.SweepTemp(cutoff)
}
