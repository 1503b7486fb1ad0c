package entity

import "time"

// ActivityLog 操作日志
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"` // item/po/usage/alert/user
	EntityID   string `json:"entity_id" gorm:"size:64;not null;index:idx_activity_entity"`
	EntityCode string `json:"entity_code" gorm:"size:64"`

	Action     string `json:"action" gorm:"size:50;not null"` // create/update/consume/arrive/resolve等
	FromStatus string `json:"from_status" gorm:"size:20"`
	ToStatus   string `json:"to_status" gorm:"size:20"`

	Content string `json:"content" gorm:"type:text"`

	OperatorID   string    `json:"operator_id" gorm:"size:64"`
	OperatorName string    `json:"operator_name" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "ims_activity_logs"
}
