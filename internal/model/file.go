// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// StoredFile 定义了 files 表的 ORM 模型。
// 一条记录对应磁盘（或对象存储）上的一个收据文件，
// 记录与二进制内容必须同生共灭：任何一侧创建失败都要清理另一侧。
type StoredFile struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OriginalFilename string    `gorm:"type:varchar(255);not null" json:"original_filename"`
	StoredFilename   string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"stored_filename"`
	FileType         string    `gorm:"type:varchar(16)" json:"file_type"`
	FileSize         int64     `gorm:"not null" json:"file_size"`
	FilePath         string    `gorm:"type:varchar(512);not null" json:"file_path"`
	MimeType         string    `gorm:"type:varchar(64)" json:"mime_type"`
	ExpenseID        *uint     `gorm:"index" json:"expense_id"` // 弱引用，可在上传后再关联
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (StoredFile) TableName() string {
	return "files"
}
