package entity

import (
	"time"
)

// PurchaseOrder 采购单
// arrived 只允许 false→true 单向流转，到货后不再允许编辑
type PurchaseOrder struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ItemID         string     `json:"item_id" gorm:"type:uuid;not null;index"`
	Quantity       int        `json:"quantity" gorm:"not null"`
	OrderDate      time.Time  `json:"order_date"`
	ArrivalDate    *time.Time `json:"arrival_date"`
	Arrived        bool       `json:"arrived" gorm:"not null;default:false;index"`
	TrackingNumber string     `json:"tracking_number" gorm:"size:100"`
	Notes          string     `json:"notes" gorm:"type:text"`
	CreatedBy      string     `json:"created_by" gorm:"size:64"`
	ArrivedBy      string     `json:"arrived_by" gorm:"size:64"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (PurchaseOrder) TableName() string {
	return "ims_purchase_orders"
}
