package entity

import (
	"time"
)

// Usage 领用记录（不可变事件，只增不改）
type Usage struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ItemID       string    `json:"item_id" gorm:"type:uuid;not null;index"`
	UserName     string    `json:"user_name" gorm:"size:100;not null"`
	QuantityUsed int       `json:"quantity_used" gorm:"not null"`
	UsedAt       time.Time `json:"used_at" gorm:"not null"`
	Notes        string    `json:"notes" gorm:"type:text"`
	Department   string    `json:"department" gorm:"size:100"`
	Barcode      string    `json:"barcode" gorm:"size:100"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (Usage) TableName() string {
	return "ims_usages"
}
