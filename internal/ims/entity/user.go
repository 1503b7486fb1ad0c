package entity

import (
	"time"
)

// UserRole 用户角色
const (
	RoleAdmin = "ims_admin"
	RoleStaff = "ims_staff"
)

// User 用户账号
// email_alerts / daily_digest 为通知订阅开关
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Username     string    `json:"username" gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:128;not null"`
	Name         string    `json:"name" gorm:"size:100"`
	Email        string    `json:"email" gorm:"size:128;index"`
	Role         string    `json:"role" gorm:"size:20;not null;default:ims_staff"`
	Department   string    `json:"department" gorm:"size:100"`
	EmailAlerts  bool      `json:"email_alerts" gorm:"not null;default:false"`
	DailyDigest  bool      `json:"daily_digest" gorm:"not null;default:false"`
	Status       string    `json:"status" gorm:"size:20;not null;default:active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "ims_users"
}
