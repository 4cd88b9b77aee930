package repository

import (
	"rentbook-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryRepository 接口定义了支出类别查找表的持久化操作。
type CategoryRepository interface {
	FindAll() ([]model.Category, error)
	SeedDefaults() error
}

// categoryRepository 是 CategoryRepository 接口的 GORM 实现。
type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建一个新的 CategoryRepository 实例。
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) FindAll() ([]model.Category, error) {
	var categories []model.Category
	err := r.db.Order("name asc").Find(&categories).Error
	return categories, err
}

// SeedDefaults 写入默认类别，已存在的名称跳过（幂等）。
func (r *categoryRepository) SeedDefaults() error {
	defaults := model.DefaultCategories()
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error
}
