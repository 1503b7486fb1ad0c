package repository

import (
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
)

type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) WithTx(tx *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: tx}
}

func (r *ActivityLogRepository) Create(log *entity.ActivityLog) error {
	return r.db.Create(log).Error
}

type ActivityLogListParams struct {
	EntityType string
	EntityID   string
	Page       int
	Size       int
}

func (r *ActivityLogRepository) List(params ActivityLogListParams) ([]entity.ActivityLog, int64, error) {
	query := r.db.Model(&entity.ActivityLog{})
	if params.EntityType != "" {
		query = query.Where("entity_type = ?", params.EntityType)
	}
	if params.EntityID != "" {
		query = query.Where("entity_id = ?", params.EntityID)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var logs []entity.ActivityLog
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&logs).Error
	return logs, total, err
}
