package handler

import (
	"errors"
	"net/http"

	"rentbook-go/internal/service"
	"rentbook-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// PropertyHandler 负责处理所有与房产相关的 API 请求。
type PropertyHandler struct {
	propertyService service.PropertyService
}

// NewPropertyHandler 创建一个新的 PropertyHandler 实例。
func NewPropertyHandler(propertyService service.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// PropertyRequest 定义了创建/更新房产 API 的请求体结构。
type PropertyRequest struct {
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
	ZipCode         string `json:"zip_code"`
	PropertyType    string `json:"property_type"`
	AcquisitionDate string `json:"acquisition_date"`
	Notes           string `json:"notes"`
}

func (r *PropertyRequest) missingRequired() bool {
	return r.Address == "" || r.City == "" || r.State == "" || r.ZipCode == ""
}

func (r *PropertyRequest) toInput() service.PropertyInput {
	return service.PropertyInput{
		Address:         r.Address,
		City:            r.City,
		State:           r.State,
		ZipCode:         r.ZipCode,
		PropertyType:    r.PropertyType,
		AcquisitionDate: r.AcquisitionDate,
		Notes:           r.Notes,
	}
}

// Create 处理创建房产的请求。
func (h *PropertyHandler) Create(c *gin.Context) {
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.missingRequired() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: address, city, state, zip_code",
		})
		return
	}

	property, err := h.propertyService.Create(req.toInput())
	if err != nil {
		log.Error("CreateProperty: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create property"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Property created successfully",
		"property": property,
	})
}

// List 处理房产列表请求。
func (h *PropertyHandler) List(c *gin.Context) {
	properties, err := h.propertyService.List()
	if err != nil {
		log.Error("ListProperties: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list properties"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":      len(properties),
		"properties": properties,
	})
}

// Get 处理按 id 获取单个房产的请求。
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	property, err := h.propertyService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPropertyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		log.Error("GetProperty: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property"})
		return
	}

	c.JSON(http.StatusOK, property)
}

// GetSummary 处理房产支出汇总请求。
func (h *PropertyHandler) GetSummary(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	summary, err := h.propertyService.GetSummary(id)
	if err != nil {
		if errors.Is(err, service.ErrPropertyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		log.Error("GetSummary: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Update 处理更新房产的请求。
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.missingRequired() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: address, city, state, zip_code",
		})
		return
	}

	property, err := h.propertyService.Update(id, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrPropertyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		log.Error("UpdateProperty: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update property"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Property updated successfully",
		"property": property,
	})
}

// Delete 处理删除房产的请求，名下支出与收据一并级联删除。
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	if err := h.propertyService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrPropertyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		log.Error("DeleteProperty: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete property"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Property deleted successfully"})
}
