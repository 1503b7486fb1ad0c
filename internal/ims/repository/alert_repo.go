package repository

import (
	"time"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) WithTx(tx *gorm.DB) *AlertRepository {
	return &AlertRepository{db: tx}
}

func (r *AlertRepository) Create(alert *entity.Alert) error {
	return r.db.Create(alert).Error
}

// ListUnresolved 某物品当前未解除的预警，按创建时间倒序
// 必须和创建/解除动作跑在同一个事务里，避免并发评估重复建单
func (r *AlertRepository) ListUnresolved(itemID string) ([]entity.Alert, error) {
	var alerts []entity.Alert
	err := r.db.Where("item_id = ? AND resolved = false", itemID).
		Order("created_at DESC").Find(&alerts).Error
	return alerts, err
}

// Resolve 解除预警（终态）
func (r *AlertRepository) Resolve(alert *entity.Alert, now time.Time) error {
	alert.Resolved = true
	alert.ResolvedAt = &now
	return r.db.Model(alert).Updates(map[string]interface{}{
		"resolved":    true,
		"resolved_at": now,
	}).Error
}

func (r *AlertRepository) GetByID(id string) (*entity.Alert, error) {
	var alert entity.Alert
	err := r.db.Where("id = ?", id).First(&alert).Error
	return &alert, err
}

// MarkRead 标记已读，与resolved状态互不影响
func (r *AlertRepository) MarkRead(id string, now time.Time) error {
	return r.db.Model(&entity.Alert{}).Where("id = ?", id).Updates(map[string]interface{}{
		"read":    true,
		"read_at": now,
	}).Error
}

// MarkIgnored 标记忽略，与resolved状态互不影响
func (r *AlertRepository) MarkIgnored(id string, now time.Time) error {
	return r.db.Model(&entity.Alert{}).Where("id = ?", id).Updates(map[string]interface{}{
		"ignored":    true,
		"ignored_at": now,
	}).Error
}

func (r *AlertRepository) CountUnresolved() (int64, error) {
	var count int64
	err := r.db.Model(&entity.Alert{}).Where("resolved = false").Count(&count).Error
	return count, err
}

type AlertListParams struct {
	ItemID   string
	Resolved *bool
	Page     int
	Size     int
}

func (r *AlertRepository) List(params AlertListParams) ([]entity.Alert, int64, error) {
	query := r.db.Model(&entity.Alert{})
	if params.ItemID != "" {
		query = query.Where("item_id = ?", params.ItemID)
	}
	if params.Resolved != nil {
		query = query.Where("resolved = ?", *params.Resolved)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var alerts []entity.Alert
	err := query.Preload("Item").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&alerts).Error
	return alerts, total, err
}
