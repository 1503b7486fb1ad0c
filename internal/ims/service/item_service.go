package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ItemService 物品档案服务
type ItemService struct {
	db           *gorm.DB
	itemRepo     *repository.ItemRepository
	activityRepo *repository.ActivityLogRepository
	engine       *AlertEngine
	logger       *zap.Logger
}

func NewItemService(
	db *gorm.DB,
	itemRepo *repository.ItemRepository,
	activityRepo *repository.ActivityLogRepository,
	engine *AlertEngine,
	logger *zap.Logger,
) *ItemService {
	return &ItemService{
		db:           db,
		itemRepo:     itemRepo,
		activityRepo: activityRepo,
		engine:       engine,
		logger:       logger,
	}
}

type CreateItemRequest struct {
	Code                 string `json:"code" binding:"required"`
	Name                 string `json:"name" binding:"required"`
	Description          string `json:"description"`
	Unit                 string `json:"unit"`
	Barcode              string `json:"barcode"`
	QRCodeID             string `json:"qr_code_id"`
	CurrentInventory     int    `json:"current_inventory" binding:"gte=0"`
	SafetyStockThreshold int    `json:"safety_stock_threshold" binding:"gte=0"`
	Location             string `json:"location"`
}

func (s *ItemService) Create(req CreateItemRequest, operator string) (*entity.Item, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.itemRepo.GetByCode(code); err == nil {
		return nil, ErrCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询物品编码失败: %w", err)
	}

	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}

	item := &entity.Item{
		ID:                   uuid.New().String(),
		Code:                 code,
		Name:                 req.Name,
		Description:          req.Description,
		Unit:                 unit,
		Barcode:              req.Barcode,
		QRCodeID:             req.QRCodeID,
		CurrentInventory:     req.CurrentInventory,
		SafetyStockThreshold: req.SafetyStockThreshold,
		Location:             req.Location,
		CreatedBy:            operator,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.itemRepo.WithTx(tx).Create(item); err != nil {
			return fmt.Errorf("创建物品失败: %w", err)
		}
		return s.writeLog(tx, item, "create",
			fmt.Sprintf("新建物品 %s，初始在库 %d，安全库存阈值 %d",
				item.Name, item.CurrentInventory, item.SafetyStockThreshold),
			operator)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

type UpdateItemRequest struct {
	Name                 *string `json:"name"`
	Description          *string `json:"description"`
	Unit                 *string `json:"unit"`
	Barcode              *string `json:"barcode"`
	QRCodeID             *string `json:"qr_code_id"`
	SafetyStockThreshold *int    `json:"safety_stock_threshold"`
	Location             *string `json:"location"`
}

// Update 更新档案字段。
// 阈值变更会立刻重新评估预警（阈值调低可能直接解除、调高可能触发新预警）。
func (s *ItemService) Update(id string, req UpdateItemRequest, operator string) (*entity.Item, error) {
	var (
		item     *entity.Item
		newAlert *entity.Alert
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		it, err := s.itemRepo.WithTx(tx).GetForUpdate(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("查询物品失败: %w", err)
		}

		thresholdChanged := false
		if req.Name != nil {
			it.Name = *req.Name
		}
		if req.Description != nil {
			it.Description = *req.Description
		}
		if req.Unit != nil && *req.Unit != "" {
			it.Unit = *req.Unit
		}
		if req.Barcode != nil {
			it.Barcode = *req.Barcode
		}
		if req.QRCodeID != nil {
			it.QRCodeID = *req.QRCodeID
		}
		if req.Location != nil {
			it.Location = *req.Location
		}
		if req.SafetyStockThreshold != nil && *req.SafetyStockThreshold != it.SafetyStockThreshold {
			if *req.SafetyStockThreshold < 0 {
				return ErrInvalidQuantity
			}
			it.SafetyStockThreshold = *req.SafetyStockThreshold
			thresholdChanged = true
		}

		if err := s.itemRepo.WithTx(tx).Update(it); err != nil {
			return fmt.Errorf("更新物品失败: %w", err)
		}

		if thresholdChanged {
			newAlert, err = s.engine.Evaluate(tx, it)
			if err != nil {
				return err
			}
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

func (s *ItemService) Get(id string) (*entity.Item, error) {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// Lookup 按条码/二维码/编码查找
func (s *ItemService) Lookup(code string) (*entity.Item, error) {
	item, err := s.itemRepo.FindByBarcode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *ItemService) List(params repository.ItemListParams) ([]entity.Item, int64, error) {
	return s.itemRepo.List(params)
}

func (s *ItemService) Delete(id, operator string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.itemRepo.WithTx(tx).GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		if err := s.itemRepo.WithTx(tx).Delete(id); err != nil {
			return fmt.Errorf("删除物品失败: %w", err)
		}
		return s.writeLog(tx, item, "delete",
			fmt.Sprintf("删除物品 %s", item.Name), operator)
	})
}

func (s *ItemService) writeLog(tx *gorm.DB, item *entity.Item, action, content, operator string) error {
	log := &entity.ActivityLog{
		ID:           uuid.New().String(),
		EntityType:   "item",
		EntityID:     item.ID,
		EntityCode:   item.Code,
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

// SetPhotoURL 关联上传后的照片地址
func (s *ItemService) SetPhotoURL(id, url string) error {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	item.PhotoURL = url
	return s.itemRepo.Update(item)
}
