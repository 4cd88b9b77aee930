package service

import (
	"rentbook-go/internal/model"
	"rentbook-go/internal/repository"
)

// CategoryService 接口定义了支出类别的业务操作。
type CategoryService interface {
	List() ([]model.Category, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

// NewCategoryService 创建一个新的 CategoryService 实例。
func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) List() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}
