package handler

import (
	"net/http"

	"rentbook-go/internal/service"
	"rentbook-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 负责处理支出类别查找表的 API 请求。
type CategoryHandler struct {
	categoryService service.CategoryService
}

// NewCategoryHandler 创建一个新的 CategoryHandler 实例。
func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// List 处理类别列表请求。
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categoryService.List()
	if err != nil {
		log.Error("ListCategories: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":      len(categories),
		"categories": categories,
	})
}
