package model

import "time"

// Expense 定义了 expenses 表的 ORM 模型。
// ReceiptFileID 是指向 StoredFile 的弱引用：删除收据文件时该字段被置空，
// 删除支出时其关联的收据文件（记录和二进制）一并删除。
type Expense struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID    uint      `gorm:"not null;index" json:"property_id"`
	Category      string    `gorm:"type:varchar(50);not null" json:"category"`
	Description   string    `gorm:"type:varchar(255)" json:"description"`
	Amount        float64   `gorm:"not null" json:"amount"`
	ExpenseDate   string    `gorm:"type:varchar(10);not null;index" json:"expense_date"` // YYYY-MM-DD
	ReceiptFileID *uint     `json:"receipt_file_id"`
	Notes         string    `gorm:"type:varchar(500)" json:"notes"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Expense) TableName() string {
	return "expenses"
}

// CategorySum 是按类别聚合支出的查询结果。
type CategorySum struct {
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Total    float64 `json:"total"`
}
