// Package convert 提供 HEIC/HEIF 到 JPEG 的格式归一化。
// iPhone 相机默认产出 HEIC，浏览器无法直接渲染，
// 部署开启转换后这类收据统一落盘为 JPEG。
package convert

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/jdeng/goheif"
)

// Converter 把一种图像格式的完整字节序列转换为 JPEG 字节序列。
type Converter interface {
	ToJPEG(data []byte) ([]byte, error)
}

// HEICConverter 是基于 goheif 解码的 Converter 实现。
type HEICConverter struct {
	// Quality 是 JPEG 编码质量，默认 90。
	Quality int
}

// NewHEICConverter 创建默认质量（90）的转换器。
func NewHEICConverter() *HEICConverter {
	return &HEICConverter{Quality: 90}
}

// ToJPEG 解码 HEIC/HEIF 字节序列并重新编码为 JPEG。
func (c *HEICConverter) ToJPEG(data []byte) ([]byte, error) {
	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode heic: %w", err)
	}

	quality := c.Quality
	if quality <= 0 {
		quality = 90
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
