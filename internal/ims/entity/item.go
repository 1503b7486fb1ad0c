package entity

import (
	"encoding/json"
	"time"
)

// Item 物品台账（聚合根）
// current_inventory 为实际在库数量（已扣减消耗），pending_po 为未到货采购量的缓存值，
// 每次PO变更后重算，不允许手工直接改库
type Item struct {
	ID                   string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code                 string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name                 string     `json:"name" gorm:"size:128;not null"`
	Description          string     `json:"description" gorm:"type:text"`
	Unit                 string     `json:"unit" gorm:"size:20;not null;default:pcs"`
	Barcode              string     `json:"barcode" gorm:"size:100;index"`
	QRCodeID             string     `json:"qr_code_id" gorm:"size:100;index"`
	CurrentInventory     int        `json:"current_inventory" gorm:"not null;default:0"`
	UsedInventory        int        `json:"used_inventory" gorm:"not null;default:0"`
	PendingPO            int        `json:"pending_po" gorm:"not null;default:0"`
	SafetyStockThreshold int        `json:"safety_stock_threshold" gorm:"not null;default:0"`
	Location             string     `json:"location" gorm:"size:100"`
	PhotoURL             string     `json:"photo_url" gorm:"size:255"`
	CreatedBy            string     `json:"created_by" gorm:"size:64"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	DeletedAt            *time.Time `json:"deleted_at" gorm:"index"`
}

func (Item) TableName() string {
	return "ims_items"
}

// EffectiveInventory 有效库存 = 在库 + 在途
func (i *Item) EffectiveInventory() int {
	return i.CurrentInventory + i.PendingPO
}

// AvailableQuantity 对外展示的可用量，不出现负数
func (i *Item) AvailableQuantity() int {
	if e := i.EffectiveInventory(); e > 0 {
		return e
	}
	return 0
}

// MarshalJSON 响应里附带计算字段available_quantity
func (i Item) MarshalJSON() ([]byte, error) {
	type itemAlias Item
	return json.Marshal(struct {
		itemAlias
		AvailableQuantity int `json:"available_quantity"`
	}{itemAlias(i), i.AvailableQuantity()})
}
