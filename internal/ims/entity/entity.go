package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有IMS表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 账号
		&User{},

		// 台账
		&Item{},

		// 采购
		&PurchaseOrder{},

		// 领用
		&Usage{},

		// 预警
		&Alert{},

		// 日志
		&ActivityLog{},
	)
}
