// Package main 是收支后端服务的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentbook-go/internal/config"
	"rentbook-go/internal/handler"
	"rentbook-go/internal/middleware"
	"rentbook-go/internal/model"
	"rentbook-go/internal/repository"
	"rentbook-go/internal/service"
	"rentbook-go/pkg/convert"
	"rentbook-go/pkg/database"
	"rentbook-go/pkg/log"
	"rentbook-go/pkg/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	// 建表并写入默认支出类别（幂等）
	if err := database.DB.AutoMigrate(
		&model.Property{}, &model.Expense{}, &model.StoredFile{}, &model.Category{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 4. 初始化文件存储后端
	store, err := newStore(cfg.Storage, cfg.Upload.Dir)
	if err != nil {
		log.Fatalf("初始化存储后端失败: %v", err)
	}

	// 5. 初始化 Repository
	fileRepo := repository.NewFileRepository(database.DB, database.RDB)
	expenseRepo := repository.NewExpenseRepository(database.DB)
	propertyRepo := repository.NewPropertyRepository(database.DB)
	categoryRepo := repository.NewCategoryRepository(database.DB)

	if err := categoryRepo.SeedDefaults(); err != nil {
		log.Fatalf("写入默认类别失败: %v", err)
	}

	// 6. 初始化 Service (依赖注入)
	var converter convert.Converter
	if cfg.Upload.EnableHeicConversion {
		converter = convert.NewHEICConverter()
	}
	fileService := service.NewFileService(fileRepo, expenseRepo, store, converter,
		cfg.Upload.MaxFileSize, cfg.Upload.EnableHeicConversion)
	expenseService := service.NewExpenseService(expenseRepo, propertyRepo, fileService)
	propertyService := service.NewPropertyService(propertyRepo, expenseService)
	categoryService := service.NewCategoryService(categoryRepo)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	fileHandler := handler.NewFileHandler(fileService, cfg.Upload.MaxFileSize)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	propertyHandler := handler.NewPropertyHandler(propertyService)
	categoryHandler := handler.NewCategoryHandler(categoryService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"message":   "Rental expense tracker API is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := r.Group("/api")
	{
		// 历史前端使用 /api/upload，与 /api/files 等价
		api.POST("/upload", fileHandler.Upload)

		files := api.Group("/files")
		{
			files.POST("", fileHandler.Upload)
			files.GET("", fileHandler.List)
			files.GET("/:id", fileHandler.Download)
			files.DELETE("/:id", fileHandler.Delete)
		}

		expenses := api.Group("/expenses")
		{
			expenses.POST("", expenseHandler.Create)
			expenses.GET("", expenseHandler.List)
			expenses.GET("/:id", expenseHandler.Get)
			expenses.PUT("/:id", expenseHandler.Update)
			expenses.DELETE("/:id", expenseHandler.Delete)
			expenses.GET("/property/:property_id", expenseHandler.ListByProperty)
			expenses.GET("/property/:property_id/categories", expenseHandler.CategorySums)
		}

		properties := api.Group("/properties")
		{
			properties.POST("", propertyHandler.Create)
			properties.GET("", propertyHandler.List)
			properties.GET("/:id", propertyHandler.Get)
			properties.GET("/:id/summary", propertyHandler.GetSummary)
			properties.PUT("/:id", propertyHandler.Update)
			properties.DELETE("/:id", propertyHandler.Delete)
		}

		api.GET("/categories", categoryHandler.List)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}

// newStore 按配置选择文件存储后端，默认落到本地磁盘目录。
func newStore(cfg config.StorageConfig, uploadDir string) (storage.Store, error) {
	switch cfg.Backend {
	case "minio":
		return storage.NewMinIOStore(cfg.MinIO)
	case "", "disk":
		if uploadDir == "" {
			uploadDir = "./uploads"
		}
		return storage.NewDiskStore(uploadDir)
	default:
		return nil, fmt.Errorf("未知的存储后端: %s", cfg.Backend)
	}
}
