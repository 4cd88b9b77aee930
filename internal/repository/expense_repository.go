package repository

import (
	"rentbook-go/internal/model"

	"gorm.io/gorm"
)

// ExpenseFilter 是支出列表查询的可选过滤条件。
type ExpenseFilter struct {
	PropertyID *uint
	Category   string
	StartDate  string // YYYY-MM-DD，含当天
	EndDate    string // YYYY-MM-DD，含当天
}

// ExpenseRepository 接口定义了支出记录的持久化操作。
type ExpenseRepository interface {
	Create(expense *model.Expense) error
	FindByID(id uint) (*model.Expense, error)
	FindAll(filter ExpenseFilter) ([]model.Expense, error)
	FindByPropertyID(propertyID uint) ([]model.Expense, error)
	Update(expense *model.Expense) error
	Delete(id uint) error
	CategorySums(propertyID uint) ([]model.CategorySum, error)
	ClearReceiptRef(fileID uint) error
}

// expenseRepository 是 ExpenseRepository 接口的 GORM 实现。
type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository 创建一个新的 ExpenseRepository 实例。
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(expense *model.Expense) error {
	return r.db.Create(expense).Error
}

func (r *expenseRepository) FindByID(id uint) (*model.Expense, error) {
	var expense model.Expense
	if err := r.db.First(&expense, id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

// FindAll 按过滤条件查询支出，按支出日期倒序排列。
func (r *expenseRepository) FindAll(filter ExpenseFilter) ([]model.Expense, error) {
	var expenses []model.Expense
	query := r.db.Order("expense_date desc")

	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.StartDate != "" {
		query = query.Where("expense_date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		query = query.Where("expense_date <= ?", filter.EndDate)
	}

	err := query.Find(&expenses).Error
	return expenses, err
}

func (r *expenseRepository) FindByPropertyID(propertyID uint) ([]model.Expense, error) {
	var expenses []model.Expense
	err := r.db.Where("property_id = ?", propertyID).
		Order("expense_date desc").
		Find(&expenses).Error
	return expenses, err
}

func (r *expenseRepository) Update(expense *model.Expense) error {
	return r.db.Save(expense).Error
}

func (r *expenseRepository) Delete(id uint) error {
	return r.db.Delete(&model.Expense{}, id).Error
}

// CategorySums 按类别聚合指定房产的支出笔数与总额，按总额倒序。
func (r *expenseRepository) CategorySums(propertyID uint) ([]model.CategorySum, error) {
	var sums []model.CategorySum
	err := r.db.Model(&model.Expense{}).
		Select("category, COUNT(*) as count, SUM(amount) as total").
		Where("property_id = ?", propertyID).
		Group("category").
		Order("total desc").
		Scan(&sums).Error
	return sums, err
}

// ClearReceiptRef 把指向某个收据文件的所有弱引用置空。
// 收据文件被独立删除时调用，支出记录本身保持不动。
func (r *expenseRepository) ClearReceiptRef(fileID uint) error {
	return r.db.Model(&model.Expense{}).
		Where("receipt_file_id = ?", fileID).
		Update("receipt_file_id", nil).Error
}
