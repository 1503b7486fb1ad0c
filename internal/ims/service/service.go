package service

import (
	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/notify"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services IMS 服务集合
type Services struct {
	Item        *ItemService
	Inventory   *InventoryService
	Procurement *ProcurementService
	Alert       *AlertService
	User        *UserService
	Auth        *AuthService
	Digest      *DigestService
	ActivityLog *ActivityLogService
	Photo       *PhotoService

	Engine *AlertEngine
}

func NewServices(
	repos *repository.Repositories,
	db *gorm.DB,
	rdb *redis.Client,
	cfg *config.Config,
	channel notify.Channel,
	logger *zap.Logger,
) *Services {
	clock := SystemClock()
	engine := NewAlertEngine(repos.Alert, repos.User, cfg.Alert, channel, clock, logger)

	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			// MinIO不可用时照片功能降级，其余功能照常
			logger.Warn("MinIO初始化失败，照片功能不可用", zap.Error(err))
			minioClient = nil
		}
	}

	return &Services{
		Item:        NewItemService(db, repos.Item, repos.ActivityLog, engine, logger),
		Inventory:   NewInventoryService(db, repos.Item, repos.Usage, repos.ActivityLog, engine, logger),
		Procurement: NewProcurementService(db, repos.Purchase, repos.Item, repos.ActivityLog, engine, logger),
		Alert:       NewAlertService(repos.Alert, clock),
		User:        NewUserService(repos.User),
		Auth:        NewAuthService(repos.User, rdb, cfg),
		Digest:      NewDigestService(repos.Alert, repos.User, rdb, cfg.Alert, channel, clock, logger),
		ActivityLog: NewActivityLogService(repos.ActivityLog),
		Photo:       NewPhotoService(minioClient, cfg.MinIO.Bucket),
		Engine:      engine,
	}
}
