// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"rentbook-go/internal/service"
	"rentbook-go/internal/upload"
	"rentbook-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// FileHandler 负责处理所有与收据文件相关的 API 请求。
type FileHandler struct {
	fileService service.FileService
	maxSize     int64
}

// NewFileHandler 创建一个新的 FileHandler 实例。
func NewFileHandler(fileService service.FileService, maxSize int64) *FileHandler {
	if maxSize <= 0 {
		maxSize = upload.DefaultMaxSize
	}
	return &FileHandler{fileService: fileService, maxSize: maxSize}
}

// Upload 处理收据上传请求：multipart 字段 file，可选字段 expense_id。
func (h *FileHandler) Upload(c *gin.Context) {
	// 请求体上限是传输层的兜底，multipart 编码有少量额外开销，
	// 留出头部余量保证恰好等于上限的文件仍能通过。
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize+64*1024)

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("File size exceeds maximum limit of %dMB", h.maxSize/(1024*1024)),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	var expenseID *uint
	if raw := c.PostForm("expense_id"); raw != "" {
		id, convErr := strconv.ParseUint(raw, 10, 32)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense_id"})
			return
		}
		v := uint(id)
		expenseID = &v
	}

	record, err := h.fileService.Upload(c.Request.Context(), header, expenseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		case errors.Is(err, upload.ErrUnsupportedType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, upload.ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrConversionDisabled):
			c.JSON(http.StatusBadRequest, gin.H{"error": "HEIC conversion is disabled"})
		case errors.Is(err, service.ErrConversionFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			log.Error("Upload: failed to store file", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "File uploaded successfully",
		"file": gin.H{
			"id":                record.ID,
			"original_filename": record.OriginalFilename,
			"stored_filename":   record.StoredFilename,
			"file_size":         record.FileSize,
			"mime_type":         record.MimeType,
		},
	})
}

// Download 处理按 id 下载收据的请求，以原始文件名作为下载名。
func (h *FileHandler) Download(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	record, rc, err := h.fileService.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		case errors.Is(err, service.ErrFileMissingOnDisk):
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found on disk"})
		default:
			log.Error("Download: failed", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		}
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.OriginalFilename))
	c.DataFromReader(http.StatusOK, record.FileSize, record.MimeType, rc, nil)
}

// Delete 处理按 id 删除收据的请求。
func (h *FileHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	if err := h.fileService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		log.Error("Delete: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

// List 处理收据列表请求，支持 expense_id 查询参数过滤。
func (h *FileHandler) List(c *gin.Context) {
	var expenseID *uint
	if raw := c.Query("expense_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense_id"})
			return
		}
		v := uint(id)
		expenseID = &v
	}

	files, err := h.fileService.List(c.Request.Context(), expenseID)
	if err != nil {
		log.Error("List: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list files"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(files),
		"files": files,
	})
}

// parseIDParam 解析路径参数 :id，非法值按不存在处理。
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
