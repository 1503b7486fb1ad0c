package repository

import (
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
)

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) WithTx(tx *gorm.DB) *UsageRepository {
	return &UsageRepository{db: tx}
}

// Create 领用记录只增不改
func (r *UsageRepository) Create(usage *entity.Usage) error {
	return r.db.Create(usage).Error
}

type UsageListParams struct {
	ItemID     string
	UserName   string
	Department string
	Page       int
	Size       int
}

func (r *UsageRepository) List(params UsageListParams) ([]entity.Usage, int64, error) {
	query := r.db.Model(&entity.Usage{})
	if params.ItemID != "" {
		query = query.Where("item_id = ?", params.ItemID)
	}
	if params.UserName != "" {
		query = query.Where("user_name = ?", params.UserName)
	}
	if params.Department != "" {
		query = query.Where("department = ?", params.Department)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var usages []entity.Usage
	err := query.Preload("Item").Order("used_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&usages).Error
	return usages, total, err
}
