package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/handler"
	"github.com/bitfantasy/nimo-ims/internal/ims/notify"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/bitfantasy/nimo-ims/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-ims service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate IMS tables", zap.Error(err))
	}
	zapLogger.Info("IMS database migration completed")

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 通知通道：SMTP未配置时降级为空实现，预警照常落库
	var channel notify.Channel
	if cfg.SMTP.Host != "" {
		emailChannel, err := notify.NewEmailChannel(cfg.SMTP.Host, cfg.SMTP.Port,
			cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			zapLogger.Fatal("Failed to init email channel", zap.Error(err))
		}
		channel = emailChannel
	} else {
		zapLogger.Warn("SMTP not configured, alert emails disabled")
		channel = notify.NoopChannel{}
	}

	// 初始化 IMS 依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, cfg, channel, zapLogger)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 健康检查
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nimo-ims"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nimo-ims"})
	})

	// 版本信息
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "nimo-ims",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// IMS API v1
	v1 := router.Group("/api/v1/ims")

	// 认证
	auth := v1.Group("/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/refresh", handlers.Auth.Refresh)
		auth.POST("/logout", handlers.Auth.Logout)
		auth.GET("/me", middleware.JWTAuth(cfg.JWT.Secret), handlers.Auth.Me)
	}

	authed := v1.Group("")
	authed.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 物品档案
		items := authed.Group("/items")
		{
			items.GET("", handlers.Item.List)
			items.POST("", handlers.Item.Create)
			items.GET("/lookup", handlers.Item.Lookup)
			items.GET("/:id", handlers.Item.Get)
			items.PUT("/:id", handlers.Item.Update)
			items.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), handlers.Item.Delete)
			items.POST("/:id/photo", handlers.Item.UploadPhoto)
			items.GET("/:id/photo", handlers.Item.PhotoURL)
			items.POST("/:id/pending", handlers.Inventory.AddPending)
			items.POST("/:id/restock", handlers.Inventory.ConfirmRestock)
		}

		// 领用
		usages := authed.Group("/usages")
		{
			usages.GET("", handlers.Inventory.ListUsages)
			usages.POST("", handlers.Inventory.RecordUsage)
		}

		// 采购单
		pos := authed.Group("/purchase-orders")
		{
			pos.GET("", handlers.Procurement.List)
			pos.POST("", handlers.Procurement.Create)
			pos.GET("/:id", handlers.Procurement.Get)
			pos.PUT("/:id", handlers.Procurement.Update)
			pos.POST("/:id/arrive", handlers.Procurement.MarkArrived)
		}

		// 预警
		alerts := authed.Group("/alerts")
		{
			alerts.GET("", handlers.Alert.List)
			alerts.GET("/count", handlers.Alert.CountUnresolved)
			alerts.POST("/:id/read", handlers.Alert.MarkRead)
			alerts.POST("/:id/ignore", handlers.Alert.MarkIgnored)
		}

		// 用户管理（仅管理员）
		users := authed.Group("/users")
		users.Use(middleware.RequireRole(entity.RoleAdmin))
		{
			users.GET("", handlers.User.List)
			users.POST("", handlers.User.Create)
			users.GET("/:id", handlers.User.Get)
			users.PUT("/:id", handlers.User.Update)
			users.DELETE("/:id", handlers.User.Delete)
		}

		// 操作日志
		authed.GET("/activity-logs", handlers.ActivityLog.List)
	}

	// 每日汇总调度
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	go services.Digest.RunScheduler(schedCtx)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("IMS Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down IMS server...")
	schedCancel()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("IMS Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
