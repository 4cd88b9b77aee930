package model

import "time"

// Category 定义了 categories 表的 ORM 模型，是支出类别的查找表。
type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Category) TableName() string {
	return "categories"
}

// DefaultCategories 是首次启动时写入的默认支出类别。
func DefaultCategories() []Category {
	return []Category{
		{Name: "Mortgage/Rent", Description: "Mortgage payments or rent"},
		{Name: "Property Tax", Description: "Annual property taxes"},
		{Name: "Insurance", Description: "Homeowners or property insurance"},
		{Name: "Maintenance", Description: "Repairs and maintenance"},
		{Name: "Utilities", Description: "Electricity, water, gas"},
		{Name: "Management Fees", Description: "Property management fees"},
		{Name: "HOA Fees", Description: "Homeowners association fees"},
		{Name: "Advertising", Description: "Advertising for tenants"},
		{Name: "Legal/Professional", Description: "Legal and professional fees"},
		{Name: "Supplies", Description: "Office and general supplies"},
	}
}
