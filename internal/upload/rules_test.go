package upload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsAllowedTypes(t *testing.T) {
	for _, mime := range AllowedMimeTypes {
		c := Candidate{Name: "receipt", Size: 1024, MIME: mime}
		assert.NoError(t, Validate(c, AllowedMimeTypes, DefaultMaxSize), mime)
	}
}

func TestValidateRejectsUnsupportedType(t *testing.T) {
	tests := []string{
		"image/gif",
		"text/plain",
		"application/zip",
		"IMAGE/JPEG", // 必须区分大小写精确匹配
		"image/jpeg; charset=utf-8",
		"",
	}
	for _, mime := range tests {
		err := Validate(Candidate{Name: "x", Size: 1, MIME: mime}, AllowedMimeTypes, DefaultMaxSize)
		require.Error(t, err, mime)
		assert.True(t, errors.Is(err, ErrUnsupportedType), mime)
		assert.False(t, errors.Is(err, ErrTooLarge), mime)
	}
}

func TestValidateTypeErrorMessageListsExtensions(t *testing.T) {
	err := Validate(Candidate{Name: "x", Size: 1, MIME: "image/gif"}, AllowedMimeTypes, DefaultMaxSize)
	require.Error(t, err)
	assert.Equal(t, "Invalid file type. Allowed types: JPEG, PNG, HEIC, HEIF, PDF", err.Error())
}

func TestValidateSizeBoundary(t *testing.T) {
	// 恰好等于上限时必须通过，超出 1 字节即失败。
	atLimit := Candidate{Name: "a.jpg", Size: DefaultMaxSize, MIME: MimeJPEG}
	assert.NoError(t, Validate(atLimit, AllowedMimeTypes, DefaultMaxSize))

	over := Candidate{Name: "a.jpg", Size: DefaultMaxSize + 1, MIME: MimeJPEG}
	err := Validate(over, AllowedMimeTypes, DefaultMaxSize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestValidateSizeErrorMessage(t *testing.T) {
	// 11MB 的 PDF 对 10MB 上限：报告 "11.00MB"。
	err := Validate(Candidate{Name: "big.pdf", Size: 11 * 1024 * 1024, MIME: MimePDF}, AllowedMimeTypes, DefaultMaxSize)
	require.Error(t, err)
	assert.Equal(t, "File size exceeds 10MB limit. Your file is 11.00MB", err.Error())
}

func TestValidateTypeCheckedBeforeSize(t *testing.T) {
	// 类型和大小同时非法时，先报类型错误。
	err := Validate(Candidate{Name: "x.gif", Size: DefaultMaxSize * 2, MIME: "image/gif"}, AllowedMimeTypes, DefaultMaxSize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestValidateDefaultMaxSize(t *testing.T) {
	// maxSize <= 0 时回落到 10MB 默认值。
	err := Validate(Candidate{Name: "a.png", Size: DefaultMaxSize + 1, MIME: MimePNG}, AllowedMimeTypes, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestImageMimeTypes(t *testing.T) {
	images := ImageMimeTypes(AllowedMimeTypes)
	assert.Equal(t, []string{MimeJPEG, MimePNG, MimeHEIC, MimeHEIF}, images)
}

func TestKindFromMIME(t *testing.T) {
	tests := []struct {
		mime string
		kind Kind
		ok   bool
	}{
		{MimeJPEG, KindJPEG, true},
		{MimePNG, KindPNG, true},
		{MimeHEIC, KindHEIC, true},
		{MimeHEIF, KindHEIC, true},
		{MimePDF, KindPDF, true},
		{"image/gif", 0, false},
	}
	for _, tt := range tests {
		k, ok := KindFromMIME(tt.mime)
		assert.Equal(t, tt.ok, ok, tt.mime)
		if ok {
			assert.Equal(t, tt.kind, k, tt.mime)
		}
	}
}

func TestKindProperties(t *testing.T) {
	assert.True(t, KindHEIC.NeedsConversion())
	assert.False(t, KindJPEG.NeedsConversion())
	assert.False(t, KindPDF.NeedsConversion())

	assert.True(t, KindJPEG.Previewable())
	assert.True(t, KindPNG.Previewable())
	assert.False(t, KindPDF.Previewable())

	assert.Equal(t, ".jpg", KindJPEG.Ext())
	assert.Equal(t, ".pdf", KindPDF.Ext())
}
