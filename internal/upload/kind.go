package upload

// Kind 是收据文件种类的封闭枚举。后续新增类型时，
// 编译器会在这里的 switch 上强制补全分支，避免散落的字符串比较。
type Kind int

const (
	KindJPEG Kind = iota
	KindPNG
	KindHEIC
	KindPDF
)

// KindFromMIME 把 MIME 串映射到文件种类。HEIF 与 HEIC 同属一类。
// 不在允许列表中的类型返回 ok=false。
func KindFromMIME(mime string) (Kind, bool) {
	switch mime {
	case MimeJPEG:
		return KindJPEG, true
	case MimePNG:
		return KindPNG, true
	case MimeHEIC, MimeHEIF:
		return KindHEIC, true
	case MimePDF:
		return KindPDF, true
	default:
		return 0, false
	}
}

// NeedsConversion 返回该种类是否需要先转换成标准光栅格式才能保存。
func (k Kind) NeedsConversion() bool {
	return k == KindHEIC
}

// Previewable 返回该种类能否直接渲染预览。PDF 只显示占位符。
func (k Kind) Previewable() bool {
	switch k {
	case KindJPEG, KindPNG, KindHEIC:
		return true
	case KindPDF:
		return false
	}
	return false
}

// Ext 返回该种类的规范文件扩展名（含点）。
func (k Kind) Ext() string {
	switch k {
	case KindJPEG:
		return ".jpg"
	case KindPNG:
		return ".png"
	case KindHEIC:
		return ".heic"
	case KindPDF:
		return ".pdf"
	}
	return ""
}

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindHEIC:
		return "heic"
	case KindPDF:
		return "pdf"
	}
	return "unknown"
}
