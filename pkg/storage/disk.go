package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// DiskStore 是 Store 的本地磁盘实现，所有文件保存在同一个目录下。
type DiskStore struct {
	dir string
}

// NewDiskStore 创建磁盘存储，目录不存在时自动创建。
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Path 返回 name 对应的磁盘绝对路径。
func (s *DiskStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save 把内容写入 <dir>/<name>。先写临时文件再原子重命名，
// 避免中途失败留下半截文件。
func (s *DiskStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	dst := s.Path(name)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return dst, nil
}

// Open 打开 name 对应的文件。
func (s *DiskStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return os.Open(s.Path(name))
}

// Exists 检查文件是否存在。
func (s *DiskStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(s.Path(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Delete 删除文件，文件已不存在时视为成功。
func (s *DiskStore) Delete(ctx context.Context, name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
