// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"rentbook-go/internal/model"
	"rentbook-go/pkg/log"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// fileMetaCacheTTL 是收据元数据在 Redis 中的缓存时长。
const fileMetaCacheTTL = 10 * time.Minute

// FileRepository 接口定义了收据文件元数据的持久化操作。
type FileRepository interface {
	Create(record *model.StoredFile) error
	GetByID(ctx context.Context, id uint) (*model.StoredFile, error)
	Delete(ctx context.Context, id uint) error
	FindAll(expenseID *uint) ([]model.StoredFile, error)
	FindByExpenseID(expenseID uint) ([]model.StoredFile, error)
}

// fileRepository 是 FileRepository 的 GORM+Redis 实现。
// 按 id 读取走 Redis 缓存，写入和删除时失效对应的键。
type fileRepository struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewFileRepository 创建一个新的 FileRepository 实例。
func NewFileRepository(db *gorm.DB, redisClient *redis.Client) FileRepository {
	return &fileRepository{db: db, redisClient: redisClient}
}

// getMetaCacheKey generates the redis key for file metadata.
func (r *fileRepository) getMetaCacheKey(id uint) string {
	return "file:meta:" + strconv.FormatUint(uint64(id), 10)
}

// Create 在数据库中创建一条收据文件记录。
func (r *fileRepository) Create(record *model.StoredFile) error {
	return r.db.Create(record).Error
}

// GetByID 按 id 检索收据文件记录，优先命中 Redis 缓存。
// 缓存读写失败只记日志，不影响主流程。
func (r *fileRepository) GetByID(ctx context.Context, id uint) (*model.StoredFile, error) {
	key := r.getMetaCacheKey(id)

	if cached, err := r.redisClient.Get(ctx, key).Result(); err == nil {
		var record model.StoredFile
		if err := json.Unmarshal([]byte(cached), &record); err == nil {
			return &record, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Warnf("读取收据元数据缓存失败, id=%d, err=%v", id, err)
	}

	var record model.StoredFile
	if err := r.db.First(&record, id).Error; err != nil {
		return nil, err
	}

	if data, err := json.Marshal(&record); err == nil {
		if err := r.redisClient.Set(ctx, key, data, fileMetaCacheTTL).Err(); err != nil {
			log.Warnf("写入收据元数据缓存失败, id=%d, err=%v", id, err)
		}
	}
	return &record, nil
}

// Delete 删除收据文件记录并使缓存失效。
func (r *fileRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.Delete(&model.StoredFile{}, id).Error; err != nil {
		return err
	}
	if err := r.redisClient.Del(ctx, r.getMetaCacheKey(id)).Err(); err != nil {
		log.Warnf("删除收据元数据缓存失败, id=%d, err=%v", id, err)
	}
	return nil
}

// FindAll 按创建时间倒序返回所有收据文件记录，expenseID 非空时按支出过滤。
func (r *fileRepository) FindAll(expenseID *uint) ([]model.StoredFile, error) {
	var records []model.StoredFile
	query := r.db.Order("created_at desc")
	if expenseID != nil {
		query = query.Where("expense_id = ?", *expenseID)
	}
	err := query.Find(&records).Error
	return records, err
}

// FindByExpenseID 返回关联到指定支出的所有收据文件记录。
func (r *fileRepository) FindByExpenseID(expenseID uint) ([]model.StoredFile, error) {
	var records []model.StoredFile
	err := r.db.Where("expense_id = ?", expenseID).Find(&records).Error
	return records, err
}
