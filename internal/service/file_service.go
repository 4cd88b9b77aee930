// Package service 包含了应用的业务逻辑层。
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"rentbook-go/internal/model"
	"rentbook-go/internal/repository"
	"rentbook-go/internal/upload"
	"rentbook-go/pkg/convert"
	"rentbook-go/pkg/log"
	"rentbook-go/pkg/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 上传管道的哨兵错误，handler 层据此映射 HTTP 状态码。
var (
	ErrNoFile             = errors.New("no file provided")
	ErrFileNotFound       = errors.New("file not found")
	ErrFileMissingOnDisk  = errors.New("file not found on disk")
	ErrConversionDisabled = errors.New("HEIC conversion is disabled")
	ErrConversionFailed   = errors.New("failed to convert HEIC file")
)

// FileService 接口定义了收据文件的业务操作。
type FileService interface {
	Upload(ctx context.Context, header *multipart.FileHeader, expenseID *uint) (*model.StoredFile, error)
	Get(ctx context.Context, id uint) (*model.StoredFile, io.ReadCloser, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, expenseID *uint) ([]model.StoredFile, error)
	DeleteByExpense(ctx context.Context, expenseID uint, receiptFileID *uint) error
}

type fileService struct {
	fileRepo    repository.FileRepository
	expenseRepo repository.ExpenseRepository
	store       storage.Store
	converter   convert.Converter
	maxSize     int64
	heicEnabled bool
}

// NewFileService 创建一个新的 FileService 实例。
// maxSize <= 0 时使用默认的 10MB 上限。
func NewFileService(fileRepo repository.FileRepository, expenseRepo repository.ExpenseRepository,
	store storage.Store, converter convert.Converter, maxSize int64, heicEnabled bool) FileService {
	if maxSize <= 0 {
		maxSize = upload.DefaultMaxSize
	}
	return &fileService{
		fileRepo:    fileRepo,
		expenseRepo: expenseRepo,
		store:       store,
		converter:   converter,
		maxSize:     maxSize,
		heicEnabled: heicEnabled,
	}
}

// Upload 执行服务端上传管道：读取分片内容、嗅探并校验类型与大小、
// 按需转换 HEIC、写入存储后端、最后落库。二进制与元数据行要么同时
// 存在要么都不存在：落库失败会回收已写入的二进制。
func (s *fileService) Upload(ctx context.Context, header *multipart.FileHeader, expenseID *uint) (*model.StoredFile, error) {
	if header == nil {
		return nil, ErrNoFile
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open multipart file: %w", err)
	}
	defer src.Close()

	// 请求体在 handler 层已被上限截断，这里整体读入内存，
	// 保证校验和转换都发生在任何字节落盘之前，不会留下半成品。
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read multipart file: %w", err)
	}

	// 服务端以内容嗅探为准；嗅探不出时才回落到客户端声明的 Content-Type。
	mime := mimetype.Detect(data).String()
	if mime == "application/octet-stream" {
		if declared := header.Header.Get("Content-Type"); declared != "" {
			mime = declared
		}
	}

	candidate := upload.Candidate{Name: header.Filename, Size: int64(len(data)), MIME: mime}
	if err := upload.Validate(candidate, upload.AllowedMimeTypes, s.maxSize); err != nil {
		log.Infof("[Upload] 拒绝上传 %s: %v", header.Filename, err)
		return nil, err
	}

	kind, _ := upload.KindFromMIME(mime)
	displayName := header.Filename

	if kind.NeedsConversion() {
		// 转换是全有或全无的：未开启转换的部署直接拒绝，绝不原样保存。
		if !s.heicEnabled {
			return nil, ErrConversionDisabled
		}
		converted, convErr := s.converter.ToJPEG(data)
		if convErr != nil {
			log.Error("[Upload] HEIC 转换失败", convErr)
			return nil, fmt.Errorf("%w: %v", ErrConversionFailed, convErr)
		}
		data = converted
		mime = upload.MimeJPEG
		kind = upload.KindJPEG
		displayName = replaceExt(displayName, ".jpg")
	}

	// 存储名不信任客户端文件名，时间戳加随机后缀保证不冲突。
	ext := strings.ToLower(filepath.Ext(displayName))
	if ext == "" {
		ext = kind.Ext()
	}
	storedName := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)

	path, err := s.store.Save(ctx, storedName, bytes.NewReader(data), int64(len(data)), mime)
	if err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	record := &model.StoredFile{
		OriginalFilename: displayName,
		StoredFilename:   storedName,
		FileType:         strings.TrimPrefix(ext, "."),
		FileSize:         int64(len(data)),
		FilePath:         path,
		MimeType:         mime,
		ExpenseID:        expenseID,
	}
	if err := s.fileRepo.Create(record); err != nil {
		// 元数据行没写成，磁盘上的二进制必须回收。
		if delErr := s.store.Delete(ctx, storedName); delErr != nil {
			log.Errorf("[Upload] 落库失败后清理二进制也失败, name=%s, err=%v", storedName, delErr)
		}
		return nil, fmt.Errorf("persist file record: %w", err)
	}

	log.Infow("收据上传成功",
		"id", record.ID,
		"originalFilename", record.OriginalFilename,
		"storedFilename", record.StoredFilename,
		"size", record.FileSize,
		"mimeType", record.MimeType,
	)
	return record, nil
}

// Get 按 id 返回收据元数据和内容流。元数据行缺失或二进制缺失都视为未找到，
// 绝不静默返回空内容。调用方负责关闭返回的 ReadCloser。
func (s *fileService) Get(ctx context.Context, id uint) (*model.StoredFile, io.ReadCloser, error) {
	record, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}

	exists, err := s.store.Exists(ctx, record.StoredFilename)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		log.Warnf("[Get] 收据记录 %d 存在但二进制缺失: %s", id, record.StoredFilename)
		return nil, nil, ErrFileMissingOnDisk
	}

	rc, err := s.store.Open(ctx, record.StoredFilename)
	if err != nil {
		return nil, nil, err
	}
	return record, rc, nil
}

// Delete 按 id 删除收据：先删二进制（缺失时容忍），再删元数据行，
// 最后把指向它的支出弱引用置空。id 不存在时返回 ErrFileNotFound。
func (s *fileService) Delete(ctx context.Context, id uint) error {
	record, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		return err
	}

	if err := s.store.Delete(ctx, record.StoredFilename); err != nil {
		// 磁盘文件删不掉也要继续删记录，否则记录会永远悬挂。
		log.Warnf("[Delete] 删除二进制失败（继续删除记录）, name=%s, err=%v", record.StoredFilename, err)
	}

	if err := s.fileRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.expenseRepo.ClearReceiptRef(id); err != nil {
		log.Warnf("[Delete] 置空支出收据引用失败, fileID=%d, err=%v", id, err)
	}
	return nil
}

// List 返回收据文件列表，expenseID 非空时只返回关联该支出的文件。
func (s *fileService) List(ctx context.Context, expenseID *uint) ([]model.StoredFile, error) {
	return s.fileRepo.FindAll(expenseID)
}

// DeleteByExpense 删除某条支出关联的全部收据文件：
// files.expense_id 指向它的，以及支出自身 receipt_file_id 引用的。
// 供支出删除时级联调用，单个文件删除失败不中断其余清理。
func (s *fileService) DeleteByExpense(ctx context.Context, expenseID uint, receiptFileID *uint) error {
	seen := map[uint]bool{}

	records, err := s.fileRepo.FindByExpenseID(expenseID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		seen[rec.ID] = true
		if err := s.Delete(ctx, rec.ID); err != nil && !errors.Is(err, ErrFileNotFound) {
			log.Warnf("[DeleteByExpense] 删除收据失败, fileID=%d, err=%v", rec.ID, err)
		}
	}

	if receiptFileID != nil && !seen[*receiptFileID] {
		if err := s.Delete(ctx, *receiptFileID); err != nil && !errors.Is(err, ErrFileNotFound) {
			log.Warnf("[DeleteByExpense] 删除收据失败, fileID=%d, err=%v", *receiptFileID, err)
		}
	}
	return nil
}

// replaceExt 把文件名的扩展名替换为 newExt（含点）。
func replaceExt(name, newExt string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return name + newExt
	}
	return strings.TrimSuffix(name, ext) + newExt
}
