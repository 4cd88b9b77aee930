// Package receiptform 实现支出录入表单的校验与提交载荷组装。
// 字段级错误以字段名为键返回，便于前端逐字段内联展示；
// 收据附件由 pkg/uploader 准备好后挂到表单上，校验互不阻塞。
package receiptform

import (
	"strings"
	"time"

	"rentbook-go/pkg/uploader"
)

// 字段名常量，同时是错误表的键。
const (
	FieldDate     = "date"
	FieldProperty = "propertyId"
	FieldProvider = "provider"
	FieldAmount   = "amount"
	FieldCategory = "categoryId"
)

// MaxAmount 金额上限，超过视为录入错误。
const MaxAmount = 999999.99

// Form 保存一次支出录入的全部输入。
// Amount 用指针区分"未填写"与显式的 0。
type Form struct {
	Date       string // YYYY-MM-DD
	PropertyID uint
	Provider   string
	Amount     *float64
	CategoryID uint
	Comments   string
	Receipt    *uploader.Selection

	// now 可注入，零值时用 time.Now，供未来日期判定。
	now func() time.Time
}

// Receipt 是提交载荷里的附件子对象，字段与上传接口对齐。
type Receipt struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// Payload 是整单提交的 JSON 载荷。没有附件时 Receipt 为 null。
type Payload struct {
	Date       string   `json:"date"`
	PropertyID uint     `json:"propertyId"`
	Provider   string   `json:"provider"`
	Amount     float64  `json:"amount"`
	CategoryID uint     `json:"categoryId"`
	Comments   *string  `json:"comments"`
	Receipt    *Receipt `json:"receipt"`
}

// Validate 校验全部字段，返回字段名到错误文案的表。
// 表为空表示表单可以提交。
func (f *Form) Validate() map[string]string {
	errs := make(map[string]string)
	for _, field := range []string{FieldDate, FieldProperty, FieldProvider, FieldAmount, FieldCategory} {
		if msg := f.ValidateField(field); msg != "" {
			errs[field] = msg
		}
	}
	return errs
}

// ValidateField 校验单个字段，供失焦时的即时反馈使用。
// 返回空串表示该字段通过。
func (f *Form) ValidateField(field string) string {
	switch field {
	case FieldDate:
		if f.Date == "" {
			return "Date is required"
		}
		d, err := time.Parse("2006-01-02", f.Date)
		if err != nil {
			return "Date is required"
		}
		if d.After(f.clock()) {
			return "Date cannot be in the future"
		}
	case FieldProperty:
		if f.PropertyID == 0 {
			return "Property is required"
		}
	case FieldProvider:
		trimmed := strings.TrimSpace(f.Provider)
		if trimmed == "" {
			return "Provider name is required"
		}
		if len(trimmed) < 2 {
			return "Provider name must be at least 2 characters"
		}
	case FieldAmount:
		if f.Amount == nil {
			return "Amount is required"
		}
		if *f.Amount <= 0 {
			return "Amount must be a positive number"
		}
		if *f.Amount > MaxAmount {
			return "Amount is too large"
		}
	case FieldCategory:
		if f.CategoryID == 0 {
			return "Category is required"
		}
	}
	return ""
}

func (f *Form) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}

// BuildPayload 组装提交载荷。调用前应先通过 Validate。
// 空备注序列化为 null 而不是空串，附件同理。
func (f *Form) BuildPayload() Payload {
	p := Payload{
		Date:       f.Date,
		PropertyID: f.PropertyID,
		Provider:   strings.TrimSpace(f.Provider),
		CategoryID: f.CategoryID,
	}
	if f.Amount != nil {
		p.Amount = *f.Amount
	}
	if f.Comments != "" {
		comments := f.Comments
		p.Comments = &comments
	}
	if f.Receipt != nil {
		p.Receipt = &Receipt{
			Name: f.Receipt.Name,
			Size: f.Receipt.Size,
			Type: f.Receipt.Type,
			Data: f.Receipt.Preview,
		}
	}
	return p
}

// ClearReceipt 在上传组件报错时摘掉已挂的附件，表单其余字段不受影响。
func (f *Form) ClearReceipt() {
	f.Receipt = nil
}
