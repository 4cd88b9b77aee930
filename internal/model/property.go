package model

import "time"

// Property 定义了 properties 表的 ORM 模型。
type Property struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Address         string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"address"`
	City            string    `gorm:"type:varchar(100);not null" json:"city"`
	State           string    `gorm:"type:varchar(50);not null" json:"state"`
	ZipCode         string    `gorm:"type:varchar(20);not null" json:"zip_code"`
	PropertyType    string    `gorm:"type:varchar(50)" json:"property_type"`
	AcquisitionDate string    `gorm:"type:varchar(10)" json:"acquisition_date"`
	Notes           string    `gorm:"type:varchar(500)" json:"notes"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Property) TableName() string {
	return "properties"
}

// PropertySummary 是房产及其支出汇总的查询结果。
type PropertySummary struct {
	Property
	ExpenseCount  int64   `json:"expense_count"`
	TotalExpenses float64 `json:"total_expenses"`
}
