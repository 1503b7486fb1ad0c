package repository

import (
	"strings"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *ItemRepository) WithTx(tx *gorm.DB) *ItemRepository {
	return &ItemRepository{db: tx}
}

func (r *ItemRepository) Create(item *entity.Item) error {
	return r.db.Create(item).Error
}

func (r *ItemRepository) Update(item *entity.Item) error {
	return r.db.Save(item).Error
}

func (r *ItemRepository) GetByID(id string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&item).Error
	return &item, err
}

func (r *ItemRepository) GetByCode(code string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.Where("code = ? AND deleted_at IS NULL", strings.ToUpper(code)).First(&item).Error
	return &item, err
}

// GetForUpdate 行锁读取，台账变更必须通过这里拿到Item
func (r *ItemRepository) GetForUpdate(id string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).First(&item).Error
	return &item, err
}

// FindByBarcode 按条码/二维码/编码顺序查找物品
func (r *ItemRepository) FindByBarcode(code string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.Where(
		"(barcode = ? OR qr_code_id = ? OR code = ?) AND deleted_at IS NULL",
		code, code, strings.ToUpper(code),
	).First(&item).Error
	return &item, err
}

// FindByBarcodeForUpdate FindByBarcode的行锁版本
func (r *ItemRepository) FindByBarcodeForUpdate(code string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where(
		"(barcode = ? OR qr_code_id = ? OR code = ?) AND deleted_at IS NULL",
		code, code, strings.ToUpper(code),
	).First(&item).Error
	return &item, err
}

type ItemListParams struct {
	Keyword  string
	LowStock bool
	Page     int
	Size     int
}

func (r *ItemRepository) List(params ItemListParams) ([]entity.Item, int64, error) {
	query := r.db.Model(&entity.Item{}).Where("deleted_at IS NULL")
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ? OR barcode ILIKE ?", kw, kw, kw)
	}
	if params.LowStock {
		query = query.Where("current_inventory + pending_po < safety_stock_threshold AND safety_stock_threshold > 0")
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var items []entity.Item
	err := query.Order("updated_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&items).Error
	return items, total, err
}

// Delete 软删除，档案保留供历史记录关联
func (r *ItemRepository) Delete(id string) error {
	return r.db.Model(&entity.Item{}).Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}
