package repository

import (
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) WithTx(tx *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: tx}
}

func (r *PurchaseRepository) Create(po *entity.PurchaseOrder) error {
	return r.db.Create(po).Error
}

func (r *PurchaseRepository) Update(po *entity.PurchaseOrder) error {
	return r.db.Save(po).Error
}

func (r *PurchaseRepository) GetByID(id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.Where("id = ?", id).First(&po).Error
	return &po, err
}

// GetForUpdate 行锁读取，到货确认必须通过这里拿到PO
func (r *PurchaseRepository) GetForUpdate(id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&po).Error
	return &po, err
}

// SumUnarrived 统计某物品所有未到货PO的数量合计
func (r *PurchaseRepository) SumUnarrived(itemID string) (int, error) {
	var result struct{ Total int }
	err := r.db.Raw(`
		SELECT COALESCE(SUM(quantity), 0) as total
		FROM ims_purchase_orders
		WHERE item_id = ? AND arrived = false
	`, itemID).Scan(&result).Error
	return result.Total, err
}

type POListParams struct {
	ItemID  string
	Arrived *bool
	Page    int
	Size    int
}

func (r *PurchaseRepository) List(params POListParams) ([]entity.PurchaseOrder, int64, error) {
	query := r.db.Model(&entity.PurchaseOrder{})
	if params.ItemID != "" {
		query = query.Where("item_id = ?", params.ItemID)
	}
	if params.Arrived != nil {
		query = query.Where("arrived = ?", *params.Arrived)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var pos []entity.PurchaseOrder
	err := query.Preload("Item").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&pos).Error
	return pos, total, err
}
