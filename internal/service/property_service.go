package service

import (
	"context"
	"errors"

	"rentbook-go/internal/model"
	"rentbook-go/internal/repository"
	"rentbook-go/pkg/log"

	"gorm.io/gorm"
)

// PropertyInput 是创建/更新房产的入参。
type PropertyInput struct {
	Address         string
	City            string
	State           string
	ZipCode         string
	PropertyType    string
	AcquisitionDate string
	Notes           string
}

// PropertyService 接口定义了房产相关的业务操作。
type PropertyService interface {
	Create(in PropertyInput) (*model.Property, error)
	Get(id uint) (*model.Property, error)
	List() ([]model.Property, error)
	Update(id uint, in PropertyInput) (*model.Property, error)
	Delete(ctx context.Context, id uint) error
	GetSummary(id uint) (*model.PropertySummary, error)
}

type propertyService struct {
	propertyRepo   repository.PropertyRepository
	expenseService ExpenseService
}

// NewPropertyService 创建一个新的 PropertyService 实例。
func NewPropertyService(propertyRepo repository.PropertyRepository, expenseService ExpenseService) PropertyService {
	return &propertyService{
		propertyRepo:   propertyRepo,
		expenseService: expenseService,
	}
}

func (s *propertyService) Create(in PropertyInput) (*model.Property, error) {
	property := &model.Property{
		Address:         in.Address,
		City:            in.City,
		State:           in.State,
		ZipCode:         in.ZipCode,
		PropertyType:    in.PropertyType,
		AcquisitionDate: in.AcquisitionDate,
		Notes:           in.Notes,
	}
	if err := s.propertyRepo.Create(property); err != nil {
		return nil, err
	}
	return property, nil
}

func (s *propertyService) Get(id uint) (*model.Property, error) {
	property, err := s.propertyRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	return property, nil
}

func (s *propertyService) List() ([]model.Property, error) {
	return s.propertyRepo.FindAll()
}

func (s *propertyService) Update(id uint, in PropertyInput) (*model.Property, error) {
	property, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	property.Address = in.Address
	property.City = in.City
	property.State = in.State
	property.ZipCode = in.ZipCode
	property.PropertyType = in.PropertyType
	property.AcquisitionDate = in.AcquisitionDate
	property.Notes = in.Notes

	if err := s.propertyRepo.Update(property); err != nil {
		return nil, err
	}
	return property, nil
}

// Delete 删除房产并级联删除其全部支出（连同各自的收据文件）。
func (s *propertyService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	expenses, err := s.expenseService.ListByProperty(id)
	if err != nil {
		return err
	}
	for _, expense := range expenses {
		if err := s.expenseService.Delete(ctx, expense.ID); err != nil {
			log.Warnf("[Delete] 级联删除支出失败, propertyID=%d, expenseID=%d, err=%v", id, expense.ID, err)
		}
	}

	return s.propertyRepo.Delete(id)
}

func (s *propertyService) GetSummary(id uint) (*model.PropertySummary, error) {
	summary, err := s.propertyRepo.GetSummary(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	return summary, nil
}
