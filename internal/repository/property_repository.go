package repository

import (
	"rentbook-go/internal/model"

	"gorm.io/gorm"
)

// PropertyRepository 接口定义了房产记录的持久化操作。
type PropertyRepository interface {
	Create(property *model.Property) error
	FindByID(id uint) (*model.Property, error)
	FindAll() ([]model.Property, error)
	Update(property *model.Property) error
	Delete(id uint) error
	GetSummary(id uint) (*model.PropertySummary, error)
}

// propertyRepository 是 PropertyRepository 接口的 GORM 实现。
type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository 创建一个新的 PropertyRepository 实例。
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(property *model.Property) error {
	return r.db.Create(property).Error
}

func (r *propertyRepository) FindByID(id uint) (*model.Property, error) {
	var property model.Property
	if err := r.db.First(&property, id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// FindAll 按地址升序返回所有房产。
func (r *propertyRepository) FindAll() ([]model.Property, error) {
	var properties []model.Property
	err := r.db.Order("address asc").Find(&properties).Error
	return properties, err
}

func (r *propertyRepository) Update(property *model.Property) error {
	return r.db.Save(property).Error
}

func (r *propertyRepository) Delete(id uint) error {
	return r.db.Delete(&model.Property{}, id).Error
}

// GetSummary 返回房产及其支出笔数与总额的汇总。
func (r *propertyRepository) GetSummary(id uint) (*model.PropertySummary, error) {
	property, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}

	summary := &model.PropertySummary{Property: *property}
	err = r.db.Model(&model.Expense{}).
		Select("COUNT(id) as expense_count, COALESCE(SUM(amount), 0) as total_expenses").
		Where("property_id = ?", id).
		Row().Scan(&summary.ExpenseCount, &summary.TotalExpenses)
	if err != nil {
		return nil, err
	}
	return summary, nil
}
