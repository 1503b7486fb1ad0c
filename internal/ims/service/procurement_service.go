package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProcurementService 采购单服务
// 维护不变量：Item.pending_po 永远等于该物品所有未到货采购单数量之和，
// 每次采购单变更后在同一事务内重算
type ProcurementService struct {
	db           *gorm.DB
	purchaseRepo *repository.PurchaseRepository
	itemRepo     *repository.ItemRepository
	activityRepo *repository.ActivityLogRepository
	engine       *AlertEngine
	logger       *zap.Logger
}

func NewProcurementService(
	db *gorm.DB,
	purchaseRepo *repository.PurchaseRepository,
	itemRepo *repository.ItemRepository,
	activityRepo *repository.ActivityLogRepository,
	engine *AlertEngine,
	logger *zap.Logger,
) *ProcurementService {
	return &ProcurementService{
		db:           db,
		purchaseRepo: purchaseRepo,
		itemRepo:     itemRepo,
		activityRepo: activityRepo,
		engine:       engine,
		logger:       logger,
	}
}

type CreatePORequest struct {
	ItemID         string `json:"item_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required"`
	OrderDate      string `json:"order_date"` // YYYY-MM-DD，缺省为当天
	TrackingNumber string `json:"tracking_number"`
	Notes          string `json:"notes"`
}

func (s *ProcurementService) CreatePO(req CreatePORequest, operator string) (*entity.PurchaseOrder, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	orderDate := s.engine.clock.Now()
	if req.OrderDate != "" {
		if t, err := time.Parse("2006-01-02", req.OrderDate); err == nil {
			orderDate = t
		}
	}

	var (
		po       *entity.PurchaseOrder
		item     *entity.Item
		newAlert *entity.Alert
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		it, err := s.itemRepo.WithTx(tx).GetForUpdate(req.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("查询物品失败: %w", err)
		}

		po = &entity.PurchaseOrder{
			ID:             uuid.New().String(),
			ItemID:         it.ID,
			Quantity:       req.Quantity,
			OrderDate:      orderDate,
			TrackingNumber: req.TrackingNumber,
			Notes:          req.Notes,
			CreatedBy:      operator,
		}
		if err := s.purchaseRepo.WithTx(tx).Create(po); err != nil {
			return fmt.Errorf("创建采购单失败: %w", err)
		}

		if err := s.recomputePendingPO(tx, it); err != nil {
			return err
		}

		if err := s.writeLog(tx, po, it, "create",
			fmt.Sprintf("下单 %d %s，在途合计 %d", req.Quantity, it.Unit, it.PendingPO),
			operator); err != nil {
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
	return po, nil
}

type UpdatePORequest struct {
	Quantity       int    `json:"quantity" binding:"required"`
	OrderDate      string `json:"order_date"`
	TrackingNumber string `json:"tracking_number"`
	Notes          string `json:"notes"`
}

// UpdatePO 修改未到货采购单；已到货的单子拒绝编辑
func (s *ProcurementService) UpdatePO(poID string, req UpdatePORequest, operator string) (*entity.PurchaseOrder, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var (
		po       *entity.PurchaseOrder
		item     *entity.Item
		newAlert *entity.Alert
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := s.purchaseRepo.WithTx(tx).GetForUpdate(poID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPONotFound
			}
			return fmt.Errorf("查询采购单失败: %w", err)
		}
		if p.Arrived {
			return ErrAlreadyArrived
		}

		quantityChanged := p.Quantity != req.Quantity
		p.Quantity = req.Quantity
		if req.TrackingNumber != "" {
			p.TrackingNumber = req.TrackingNumber
		}
		if req.Notes != "" {
			p.Notes = req.Notes
		}
		if req.OrderDate != "" {
			if t, parseErr := time.Parse("2006-01-02", req.OrderDate); parseErr == nil {
				p.OrderDate = t
			}
		}
		if err := s.purchaseRepo.WithTx(tx).Update(p); err != nil {
			return fmt.Errorf("更新采购单失败: %w", err)
		}

		it, err := s.itemRepo.WithTx(tx).GetForUpdate(p.ItemID)
		if err != nil {
			return fmt.Errorf("查询物品失败: %w", err)
		}
		if quantityChanged {
			if err := s.recomputePendingPO(tx, it); err != nil {
				return err
			}
			if err := s.writeLog(tx, p, it, "update",
				fmt.Sprintf("数量调整为 %d，在途合计 %d", req.Quantity, it.PendingPO),
				operator); err != nil {
				return err
			}
		}

		newAlert, err = s.engine.Evaluate(tx, it)
		if err != nil {
			return err
		}
		po = p
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newAlert != nil {
		s.engine.Dispatch(newAlert, item)
	}
	return po, nil
}

// MarkArrived 到货确认。
// 原子完成：置arrived+到货时间 → 在库加上单量 → 重算在途 → 预警评估。
// 重复确认返回 ErrAlreadyArrived。
func (s *ProcurementService) MarkArrived(poID, operator string) (*entity.PurchaseOrder, error) {
	var (
		po       *entity.PurchaseOrder
		item     *entity.Item
		newAlert *entity.Alert
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := s.purchaseRepo.WithTx(tx).GetForUpdate(poID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPONotFound
			}
			return fmt.Errorf("查询采购单失败: %w", err)
		}
		if p.Arrived {
			return ErrAlreadyArrived
		}

		it, err := s.itemRepo.WithTx(tx).GetForUpdate(p.ItemID)
		if err != nil {
			return fmt.Errorf("查询物品失败: %w", err)
		}

		now := s.engine.clock.Now()
		p.Arrived = true
		p.ArrivalDate = &now
		p.ArrivedBy = operator
		if err := s.purchaseRepo.WithTx(tx).Update(p); err != nil {
			return fmt.Errorf("更新采购单失败: %w", err)
		}

		it.CurrentInventory += p.Quantity
		if err := s.recomputePendingPO(tx, it); err != nil {
			return err
		}

		if err := s.writeLog(tx, p, it, "arrive",
			fmt.Sprintf("到货 %d %s，在库 %d，在途 %d", p.Quantity, it.Unit, it.CurrentInventory, it.PendingPO),
			operator); err != nil {
			return err
		}

		newAlert, err = s.engine.Evaluate(tx, it)
		if err != nil {
			return err
		}
		po = p
		item = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newAlert != nil {
		s.engine.Dispatch(newAlert, item)
	}
	return po, nil
}

func (s *ProcurementService) GetPO(id string) (*entity.PurchaseOrder, error) {
	po, err := s.purchaseRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPONotFound
		}
		return nil, err
	}
	return po, nil
}

func (s *ProcurementService) ListPOs(params repository.POListParams) ([]entity.PurchaseOrder, int64, error) {
	return s.purchaseRepo.List(params)
}

// recomputePendingPO 重算在途缓存字段并落库，必须在事务内调用
func (s *ProcurementService) recomputePendingPO(tx *gorm.DB, item *entity.Item) error {
	total, err := s.purchaseRepo.WithTx(tx).SumUnarrived(item.ID)
	if err != nil {
		return fmt.Errorf("统计在途数量失败: %w", err)
	}
	item.PendingPO = total
	if err := s.itemRepo.WithTx(tx).Update(item); err != nil {
		return fmt.Errorf("更新台账失败: %w", err)
	}
	return nil
}

func (s *ProcurementService) writeLog(tx *gorm.DB, po *entity.PurchaseOrder, item *entity.Item, action, content, operator string) error {
	log := &entity.ActivityLog{
		ID:           uuid.New().String(),
		EntityType:   "po",
		EntityID:     po.ID,
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
