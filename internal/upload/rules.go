// Package upload 定义了收据文件校验的共享规则。
// 客户端选择文件和服务端持久化前都必须独立执行这套规则，
// 服务端的判定以内容嗅探为准，是最终的安全边界。
package upload

import (
	"errors"
	"fmt"
	"strings"
)

// 支持的 MIME 类型常量。
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeHEIC = "image/heic"
	MimeHEIF = "image/heif"
	MimePDF  = "application/pdf"
)

// AllowedMimeTypes 是客户端和服务端共用的唯一允许列表。
// 旧版前端漏掉了 image/heif，这里统一采用服务端的完整集合。
var AllowedMimeTypes = []string{MimeJPEG, MimePNG, MimeHEIC, MimeHEIF, MimePDF}

// DefaultMaxSize 是默认的单文件大小上限（10MB）。
const DefaultMaxSize int64 = 10 * 1024 * 1024

// 校验失败的哨兵错误，调用方通过 errors.Is 区分失败类别。
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file size exceeds limit")
)

// Candidate 描述一个待校验的候选文件，只携带元数据，不持有文件内容。
type Candidate struct {
	Name string
	Size int64
	MIME string
}

// TypeError 表示候选文件的 MIME 类型不在允许列表中。
type TypeError struct {
	MIME    string
	Allowed []string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("Invalid file type. Allowed types: %s", ExtensionLabel(e.Allowed))
}

func (e *TypeError) Unwrap() error { return ErrUnsupportedType }

// SizeError 表示候选文件超过了大小上限。
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("File size exceeds %dMB limit. Your file is %.2fMB",
		e.Limit/(1024*1024), float64(e.Size)/1024/1024)
}

func (e *SizeError) Unwrap() error { return ErrTooLarge }

// Validate 对候选文件执行共享校验规则：
// MIME 类型必须与允许列表中的完整 MIME 串精确匹配（区分大小写），
// 大小不得超过 maxSize（等于上限时通过）。maxSize <= 0 时使用 DefaultMaxSize。
func Validate(c Candidate, allowed []string, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	ok := false
	for _, m := range allowed {
		if c.MIME == m {
			ok = true
			break
		}
	}
	if !ok {
		return &TypeError{MIME: c.MIME, Allowed: allowed}
	}

	if c.Size > maxSize {
		return &SizeError{Size: c.Size, Limit: maxSize}
	}

	return nil
}

// ImageMimeTypes 返回允许列表中 image/ 开头的子集，
// 供移动端相机拍照这类仅接受图片的入口使用。
func ImageMimeTypes(allowed []string) []string {
	var images []string
	for _, m := range allowed {
		if strings.HasPrefix(m, "image/") {
			images = append(images, m)
		}
	}
	return images
}

// ExtensionLabel 把 MIME 列表转换成面向用户的扩展名描述，
// 例如 "JPEG, PNG, HEIC, HEIF, PDF"。
func ExtensionLabel(allowed []string) string {
	parts := make([]string, 0, len(allowed))
	for _, m := range allowed {
		if i := strings.IndexByte(m, '/'); i >= 0 {
			parts = append(parts, strings.ToUpper(m[i+1:]))
		}
	}
	return strings.Join(parts, ", ")
}
