// Package storage 提供收据二进制文件的存储抽象。
// 默认实现写本地磁盘，部署上也可以切换到 MinIO 对象存储。
package storage

import (
	"context"
	"io"
)

// Store 是收据文件存储后端的接口，实现必须可以被并发使用。
type Store interface {
	// Save 以 name 为键写入文件内容，返回可回写到元数据行的存储路径。
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)

	// Open 按 name 打开文件内容，调用方负责关闭返回的 ReadCloser。
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Exists 检查 name 对应的文件是否存在。
	Exists(ctx context.Context, name string) (bool, error)

	// Delete 删除 name 对应的文件。文件不存在时不报错，
	// 以便删除操作对已丢失的磁盘文件保持幂等。
	Delete(ctx context.Context, name string) error
}
