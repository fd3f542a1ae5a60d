package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试辅助函数：创建临时存储目录
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "filestore_test_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := NewStore(tempDir, "http://localhost:8080/v1/files")
	require.NoError(t, err)
	return store
}

// TestSaveUpload 测试上传写入临时区
func TestSaveUpload(t *testing.T) {
	store := setupTestStore(t)

	path, size, err := store.SaveUpload("file-001", "notes.txt", strings.NewReader("hello attachment"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("hello attachment")), size)
	assert.Equal(t, filepath.Join("tmp", "file-001", "notes.txt"), path)

	content, err := store.ReadBytes("file-001")
	require.NoError(t, err)
	assert.Equal(t, "hello attachment", string(content))
}

// TestPromote 测试临时文件转为永久存储
func TestPromote(t *testing.T) {
	store := setupTestStore(t)

	t.Run("moves file into the permanent area", func(t *testing.T) {
		_, _, err := store.SaveUpload("file-002", "report.pdf", strings.NewReader("%PDF-1.4"))
		require.NoError(t, err)

		path, err := store.Promote("file-002")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("permanent", "file-002", "report.pdf"), path)

		// 临时目录已不存在
		_, err = os.Stat(filepath.Join(store.basePath, "tmp", "file-002"))
		assert.True(t, os.IsNotExist(err))

		// 提升后内容仍可读取
		content, err := store.ReadBytes("file-002")
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(content))
	})

	t.Run("promoting an already permanent file succeeds", func(t *testing.T) {
		path, err := store.Promote("file-002")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("permanent", "file-002", "report.pdf"), path)
	})

	t.Run("promoting a missing file fails", func(t *testing.T) {
		_, err := store.Promote("missing")
		assert.ErrorIs(t, err, ErrFileMissing)
	})
}

// TestResolveURL 测试下载链接解析
func TestResolveURL(t *testing.T) {
	store := setupTestStore(t)

	_, _, err := store.SaveUpload("file-003", "image.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	t.Run("existing file resolves to a download url", func(t *testing.T) {
		url, err := store.ResolveURL("file-003")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/v1/files/file-003", url)
	})

	t.Run("dangling id returns ErrFileMissing", func(t *testing.T) {
		_, err := store.ResolveURL("deleted-externally")
		assert.ErrorIs(t, err, ErrFileMissing)
	})
}

// TestSweepTemp 测试临时区过期清理
func TestSweepTemp(t *testing.T) {
	store := setupTestStore(t)

	_, _, err := store.SaveUpload("stale", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)
	_, _, err = store.SaveUpload("fresh", "b.txt", strings.NewReader("y"))
	require.NoError(t, err)

	// 人为把 stale 目录的修改时间拨回过去
	staleDir := filepath.Join(store.basePath, "tmp", "stale")
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(staleDir, old, old))

	removed, err := store.SweepTemp(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.ReadBytes("stale")
	assert.ErrorIs(t, err, ErrFileMissing)

	_, err = store.ReadBytes("fresh")
	assert.NoError(t, err)
}
