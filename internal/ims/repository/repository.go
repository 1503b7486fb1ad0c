package repository

import "gorm.io/gorm"

// Repositories IMS 仓库集合
type Repositories struct {
	Item        *ItemRepository
	Purchase    *PurchaseRepository
	Alert       *AlertRepository
	Usage       *UsageRepository
	User        *UserRepository
	ActivityLog *ActivityLogRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Item:        NewItemRepository(db),
		Purchase:    NewPurchaseRepository(db),
		Alert:       NewAlertRepository(db),
		Usage:       NewUsageRepository(db),
		User:        NewUserRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}
