package entity

import (
	"time"
)

// AlertType 预警级别
const (
	AlertTypeCritical = "CRITICAL_STOCK"
	AlertTypeWarning  = "WARNING_STOCK"
)

// Alert 安全库存预警
// current_inventory 等字段为创建时刻的快照值，不随台账变化；
// resolved 为终态，状态更新只能通过新建一条Alert表达
type Alert struct {
	ID                   string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ItemID               string     `json:"item_id" gorm:"type:uuid;not null;index"`
	AlertType            string     `json:"alert_type" gorm:"size:20;not null"`
	Message              string     `json:"message" gorm:"type:text"`
	CurrentInventory     int        `json:"current_inventory" gorm:"not null"`
	PendingPO            int        `json:"pending_po" gorm:"not null"`
	UsedInventory        int        `json:"used_inventory" gorm:"not null"`
	SafetyStockThreshold int        `json:"safety_stock_threshold" gorm:"not null"`
	Resolved             bool       `json:"resolved" gorm:"not null;default:false;index:idx_alert_item_open"`
	ResolvedAt           *time.Time `json:"resolved_at"`
	Read                 bool       `json:"read" gorm:"not null;default:false"`
	ReadAt               *time.Time `json:"read_at"`
	Ignored              bool       `json:"ignored" gorm:"not null;default:false"`
	IgnoredAt            *time.Time `json:"ignored_at"`
	CreatedAt            time.Time  `json:"created_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (Alert) TableName() string {
	return "ims_alerts"
}

// EffectiveInventory 快照时刻的有效库存
func (a *Alert) EffectiveInventory() int {
	return a.CurrentInventory + a.PendingPO
}
