package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrFileMissing 文件在磁盘上不存在（可能已被外部删除）
var ErrFileMissing = errors.New("stored file missing")

// Store 上传文件的文件系统存储。
//
// 目录结构:
//
//	{basePath}/tmp/{fileID}/{filename}        请求级临时区
//	{basePath}/permanent/{fileID}/{filename}  永久区
//
// Promote 将文件从临时区单向移动到永久区，没有补偿动作。
type Store struct {
	basePath string
	baseURL  string // 下载链接前缀，如 https://cms.example.com/v1/files
}

// NewStore 创建文件系统存储实例。
func NewStore(basePath, baseURL string) (*Store, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path is required")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base path: %w", err)
	}

	for _, dir := range []string{filepath.Join(absPath, "tmp"), filepath.Join(absPath, "permanent")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	return &Store{basePath: absPath, baseURL: baseURL}, nil
}

// SaveUpload 将上传内容写入临时区，返回相对存储路径和写入字节数。
func (s *Store) SaveUpload(fileID, filename string, content io.Reader) (string, int64, error) {
	dir := filepath.Join(s.basePath, "tmp", fileID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	target := filepath.Join(dir, filepath.Base(filename))
	f, err := os.Create(target)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, content)
	if err != nil {
		return "", 0, fmt.Errorf("failed to write upload file: %w", err)
	}

	relPath, err := filepath.Rel(s.basePath, target)
	if err != nil {
		return target, size, nil
	}
	return relPath, size, nil
}

// Promote 将文件从临时区移动到永久区，返回新的相对存储路径。
// 移动是单向的：之后即使发送全部失败，文件也保持在永久区。
func (s *Store) Promote(fileID string) (string, error) {
	tmpDir := filepath.Join(s.basePath, "tmp", fileID)
	permDir := filepath.Join(s.basePath, "permanent", fileID)

	if _, err := os.Stat(permDir); err == nil {
		// 已经是永久文件，重复提升视为成功
		return s.relFilePath(permDir)
	}

	if _, err := os.Stat(tmpDir); err != nil {
		if os.IsNotExist(err) {
			return "", ErrFileMissing
		}
		return "", fmt.Errorf("failed to stat temp file: %w", err)
	}

	if err := os.Rename(tmpDir, permDir); err != nil {
		return "", fmt.Errorf("failed to promote file: %w", err)
	}

	return s.relFilePath(permDir)
}

// ReadBytes 读取文件内容，优先查永久区。
func (s *Store) ReadBytes(fileID string) ([]byte, error) {
	path, err := s.findFile(fileID)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileMissing
		}
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	return content, nil
}

// Filename 返回存储文件的原始文件名。
func (s *Store) Filename(fileID string) (string, error) {
	path, err := s.findFile(fileID)
	if err != nil {
		return "", err
	}
	return filepath.Base(path), nil
}

// RealPath 返回文件在磁盘上的绝对路径。
func (s *Store) RealPath(fileID string) (string, error) {
	return s.findFile(fileID)
}

// ResolveURL 将文件ID解析为可供下载的URL；文件缺失时返回 ErrFileMissing。
func (s *Store) ResolveURL(fileID string) (string, error) {
	if _, err := s.findFile(fileID); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", s.baseURL, fileID), nil
}

// SweepTemp 清理临时区中早于 cutoff 的上传目录，返回清理数量。
func (s *Store) SweepTemp(cutoff time.Time) (int, error) {
	tmpRoot := filepath.Join(s.basePath, "tmp")
	entries, err := os.ReadDir(tmpRoot)
	if err != nil {
		return 0, fmt.Errorf("failed to read temp directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(filepath.Join(tmpRoot, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// findFile 在永久区和临时区查找文件，返回磁盘绝对路径。
func (s *Store) findFile(fileID string) (string, error) {
	for _, area := range []string{"permanent", "tmp"} {
		dir := filepath.Join(s.basePath, area, fileID)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				return filepath.Join(dir, entry.Name()), nil
			}
		}
	}
	return "", ErrFileMissing
}

// relFilePath 返回目录下第一个文件相对 basePath 的路径。
func (s *Store) relFilePath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read promoted directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			rel, err := filepath.Rel(s.basePath, filepath.Join(dir, entry.Name()))
			if err != nil {
				return filepath.Join(dir, entry.Name()), nil
			}
			return rel, nil
		}
	}
	return "", ErrFileMissing
}
