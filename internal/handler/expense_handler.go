package handler

import (
	"errors"
	"net/http"
	"strconv"

	"rentbook-go/internal/repository"
	"rentbook-go/internal/service"
	"rentbook-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 负责处理所有与支出相关的 API 请求。
type ExpenseHandler struct {
	expenseService service.ExpenseService
}

// NewExpenseHandler 创建一个新的 ExpenseHandler 实例。
func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// ExpenseRequest 定义了创建/更新支出 API 的请求体结构。
type ExpenseRequest struct {
	PropertyID    uint    `json:"property_id"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	ExpenseDate   string  `json:"expense_date"`
	ReceiptFileID *uint   `json:"receipt_file_id"`
	Notes         string  `json:"notes"`
}

func (r *ExpenseRequest) missingRequired() bool {
	return r.PropertyID == 0 || r.Category == "" || r.Amount == 0 || r.ExpenseDate == ""
}

func (r *ExpenseRequest) toInput() service.ExpenseInput {
	return service.ExpenseInput{
		PropertyID:    r.PropertyID,
		Category:      r.Category,
		Description:   r.Description,
		Amount:        r.Amount,
		ExpenseDate:   r.ExpenseDate,
		ReceiptFileID: r.ReceiptFileID,
		Notes:         r.Notes,
	}
}

// Create 处理创建支出的请求。
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.missingRequired() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: property_id, category, amount, expense_date",
		})
		return
	}

	expense, err := h.expenseService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrPropertyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		log.Error("CreateExpense: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create expense"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Expense created successfully",
		"expense": expense,
	})
}

// List 处理支出列表请求，支持 property_id、category、start_date、end_date 过滤。
func (h *ExpenseHandler) List(c *gin.Context) {
	var filter repository.ExpenseFilter

	if raw := c.Query("property_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property_id"})
			return
		}
		v := uint(id)
		filter.PropertyID = &v
	}
	filter.Category = c.Query("category")
	filter.StartDate = c.Query("start_date")
	filter.EndDate = c.Query("end_date")

	expenses, err := h.expenseService.List(filter)
	if err != nil {
		log.Error("ListExpenses: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list expenses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(expenses),
		"expenses": expenses,
	})
}

// Get 处理按 id 获取单条支出的请求。
func (h *ExpenseHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}

	expense, err := h.expenseService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrExpenseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
			return
		}
		log.Error("GetExpense: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get expense"})
		return
	}

	c.JSON(http.StatusOK, expense)
}

// Update 处理更新支出的请求。
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.missingRequired() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: property_id, category, amount, expense_date",
		})
		return
	}

	expense, err := h.expenseService.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExpenseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		case errors.Is(err, service.ErrPropertyNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		default:
			log.Error("UpdateExpense: failed", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update expense"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Expense updated successfully",
		"expense": expense,
	})
}

// Delete 处理删除支出的请求，关联的收据文件一并删除。
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}

	if err := h.expenseService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrExpenseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
			return
		}
		log.Error("DeleteExpense: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expense"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

// ListByProperty 处理按房产列出支出的请求。
func (h *ExpenseHandler) ListByProperty(c *gin.Context) {
	propertyID, err := strconv.ParseUint(c.Param("property_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	expenses, svcErr := h.expenseService.ListByProperty(uint(propertyID))
	if svcErr != nil {
		log.Error("ListByProperty: failed", svcErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list expenses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(expenses),
		"expenses": expenses,
	})
}

// CategorySums 处理按房产的类别支出汇总请求。
func (h *ExpenseHandler) CategorySums(c *gin.Context) {
	propertyID, err := strconv.ParseUint(c.Param("property_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	sums, svcErr := h.expenseService.CategorySums(uint(propertyID))
	if svcErr != nil {
		log.Error("CategorySums: failed", svcErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize expenses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": sums})
}
