package service

import (
	"context"
	"errors"

	"rentbook-go/internal/model"
	"rentbook-go/internal/repository"
	"rentbook-go/pkg/log"

	"gorm.io/gorm"
)

var (
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrPropertyNotFound = errors.New("property not found")
)

// ExpenseInput 是创建/更新支出的入参。
type ExpenseInput struct {
	PropertyID    uint
	Category      string
	Description   string
	Amount        float64
	ExpenseDate   string
	ReceiptFileID *uint
	Notes         string
}

// ExpenseService 接口定义了支出相关的业务操作。
type ExpenseService interface {
	Create(ctx context.Context, in ExpenseInput) (*model.Expense, error)
	Get(id uint) (*model.Expense, error)
	List(filter repository.ExpenseFilter) ([]model.Expense, error)
	ListByProperty(propertyID uint) ([]model.Expense, error)
	Update(ctx context.Context, id uint, in ExpenseInput) (*model.Expense, error)
	Delete(ctx context.Context, id uint) error
	CategorySums(propertyID uint) ([]model.CategorySum, error)
}

type expenseService struct {
	expenseRepo  repository.ExpenseRepository
	propertyRepo repository.PropertyRepository
	fileService  FileService
}

// NewExpenseService 创建一个新的 ExpenseService 实例。
func NewExpenseService(expenseRepo repository.ExpenseRepository, propertyRepo repository.PropertyRepository,
	fileService FileService) ExpenseService {
	return &expenseService{
		expenseRepo:  expenseRepo,
		propertyRepo: propertyRepo,
		fileService:  fileService,
	}
}

// Create 创建支出，所属房产必须存在。
func (s *expenseService) Create(ctx context.Context, in ExpenseInput) (*model.Expense, error) {
	if _, err := s.propertyRepo.FindByID(in.PropertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}

	expense := &model.Expense{
		PropertyID:    in.PropertyID,
		Category:      in.Category,
		Description:   in.Description,
		Amount:        in.Amount,
		ExpenseDate:   in.ExpenseDate,
		ReceiptFileID: in.ReceiptFileID,
		Notes:         in.Notes,
	}
	if err := s.expenseRepo.Create(expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) Get(id uint) (*model.Expense, error) {
	expense, err := s.expenseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) List(filter repository.ExpenseFilter) ([]model.Expense, error) {
	return s.expenseRepo.FindAll(filter)
}

func (s *expenseService) ListByProperty(propertyID uint) ([]model.Expense, error) {
	return s.expenseRepo.FindByPropertyID(propertyID)
}

// Update 更新支出，支出和目标房产都必须存在。
func (s *expenseService) Update(ctx context.Context, id uint, in ExpenseInput) (*model.Expense, error) {
	expense, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if _, err := s.propertyRepo.FindByID(in.PropertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}

	expense.PropertyID = in.PropertyID
	expense.Category = in.Category
	expense.Description = in.Description
	expense.Amount = in.Amount
	expense.ExpenseDate = in.ExpenseDate
	expense.ReceiptFileID = in.ReceiptFileID
	expense.Notes = in.Notes

	if err := s.expenseRepo.Update(expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// Delete 删除支出并级联删除其关联的收据文件（记录和二进制）。
// 收据清理是尽力而为的，不会阻止支出本身的删除。
func (s *expenseService) Delete(ctx context.Context, id uint) error {
	expense, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := s.fileService.DeleteByExpense(ctx, id, expense.ReceiptFileID); err != nil {
		log.Warnf("[Delete] 级联清理收据失败, expenseID=%d, err=%v", id, err)
	}

	return s.expenseRepo.Delete(id)
}

func (s *expenseService) CategorySums(propertyID uint) ([]model.CategorySum, error) {
	return s.expenseRepo.CategorySums(propertyID)
}
