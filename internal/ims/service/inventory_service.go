package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryService 库存台账服务
// 所有台账变更都在单事务内完成：行锁 → 改数 → 重算在途 → 预警评估，
// 事务提交后才做通知投递
type InventoryService struct {
	db           *gorm.DB
	itemRepo     *repository.ItemRepository
	usageRepo    *repository.UsageRepository
	activityRepo *repository.ActivityLogRepository
	engine       *AlertEngine
	logger       *zap.Logger
}

func NewInventoryService(
	db *gorm.DB,
	itemRepo *repository.ItemRepository,
	usageRepo *repository.UsageRepository,
	activityRepo *repository.ActivityLogRepository,
	engine *AlertEngine,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		db:           db,
		itemRepo:     itemRepo,
		usageRepo:    usageRepo,
		activityRepo: activityRepo,
		engine:       engine,
		logger:       logger,
	}
}

type RecordUsageRequest struct {
	Barcode    string `json:"barcode" binding:"required"`
	UserName   string `json:"user_name" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
	Notes      string `json:"notes"`
	Department string `json:"department"`
}

// RecordUsage 扫码领用。
// 失败时台账不变、不触发预警评估；成功时在事务提交前完成评估。
func (s *InventoryService) RecordUsage(req RecordUsageRequest) (*entity.Usage, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var (
		usage    *entity.Usage
		item     *entity.Item
		newAlert *entity.Alert
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		it, err := s.itemRepo.WithTx(tx).FindByBarcodeForUpdate(req.Barcode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("查询物品失败: %w", err)
		}

		if it.CurrentInventory < req.Quantity {
			return &InsufficientInventoryError{
				Available: it.CurrentInventory,
				Requested: req.Quantity,
			}
		}

		it.CurrentInventory -= req.Quantity
		it.UsedInventory += req.Quantity
		if err := s.itemRepo.WithTx(tx).Update(it); err != nil {
			return fmt.Errorf("更新台账失败: %w", err)
		}

		usage = &entity.Usage{
			ID:           uuid.New().String(),
			ItemID:       it.ID,
			UserName:     req.UserName,
			QuantityUsed: req.Quantity,
			UsedAt:       s.engine.clock.Now(),
			Notes:        req.Notes,
			Department:   req.Department,
			Barcode:      req.Barcode,
		}
		if err := s.usageRepo.WithTx(tx).Create(usage); err != nil {
			return fmt.Errorf("创建领用记录失败: %w", err)
		}

		if err := s.writeLog(tx, "item", it.ID, it.Code, "consume",
			fmt.Sprintf("领用 %d %s，剩余在库 %d", req.Quantity, it.Unit, it.CurrentInventory),
			req.UserName); err != nil {
			return err
		}

		newAlert, err = s.engine.Evaluate(tx, it)
		if err != nil {
			return err
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newAlert != nil {
		s.engine.Dispatch(newAlert, item)
	}
	return usage, nil
}

// AddPendingQuantity 手工登记在途数量（不经采购单）
func (s *InventoryService) AddPendingQuantity(itemID string, quantity int, operator string) (*entity.Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.mutateItem(itemID, operator, func(it *entity.Item) (string, error) {
		it.PendingPO += quantity
		return fmt.Sprintf("手工登记在途 %d，在途合计 %d", quantity, it.PendingPO), nil
	}, "add_pending")
}

// ConfirmRestock 确认到货入库（冲减在途，不经采购单）
func (s *InventoryService) ConfirmRestock(itemID string, quantity int, operator string) (*entity.Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.mutateItem(itemID, operator, func(it *entity.Item) (string, error) {
		it.CurrentInventory += quantity
		it.PendingPO -= quantity
		if it.PendingPO < 0 {
			it.PendingPO = 0
		}
		return fmt.Sprintf("确认入库 %d，在库 %d，在途 %d", quantity, it.CurrentInventory, it.PendingPO), nil
	}, "restock")
}

// mutateItem 通用的台账变更骨架：锁行 → 变更 → 日志 → 评估 → 提交后投递
func (s *InventoryService) mutateItem(itemID, operator string, mutate func(*entity.Item) (string, error), action string) (*entity.Item, error) {
	var (
		item     *entity.Item
		newAlert *entity.Alert
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		it, err := s.itemRepo.WithTx(tx).GetForUpdate(itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("查询物品失败: %w", err)
		}

		content, err := mutate(it)
		if err != nil {
			return err
		}
		if err := s.itemRepo.WithTx(tx).Update(it); err != nil {
			return fmt.Errorf("更新台账失败: %w", err)
		}

		if err := s.writeLog(tx, "item", it.ID, it.Code, action, content, operator); err != nil {
			return err
		}

		newAlert, err = s.engine.Evaluate(tx, it)
		if err != nil {
			return err
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newAlert != nil {
		s.engine.Dispatch(newAlert, item)
	}
	return item, nil
}

func (s *InventoryService) writeLog(tx *gorm.DB, entityType, entityID, entityCode, action, content, operator string) error {
	log := &entity.ActivityLog{
		ID:           uuid.New().String(),
		EntityType:   entityType,
		EntityID:     entityID,
		EntityCode:   entityCode,
		Action:       action,
		Content:      content,
		OperatorName: operator,
		CreatedAt:    s.engine.clock.Now(),
	}
	if err := s.activityRepo.WithTx(tx).Create(log); err != nil {
		return fmt.Errorf("写入操作日志失败: %w", err)
	}
	return nil
}

func (s *InventoryService) ListUsages(params repository.UsageListParams) ([]entity.Usage, int64, error) {
	return s.usageRepo.List(params)
}
