package repository

import (
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *entity.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) Update(user *entity.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) GetByID(id string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("id = ?", id).First(&user).Error
	return &user, err
}

func (r *UserRepository) GetByUsername(username string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) List(page, size int) ([]entity.User, int64, error) {
	query := r.db.Model(&entity.User{})
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var users []entity.User
	err := query.Order("created_at").Offset((page - 1) * size).Limit(size).Find(&users).Error
	return users, total, err
}

func (r *UserRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&entity.User{}).Error
}

// ListAlertRecipients 订阅了库存预警邮件的用户地址
func (r *UserRepository) ListAlertRecipients() ([]string, error) {
	var emails []string
	err := r.db.Model(&entity.User{}).
		Where("email_alerts = true AND status = 'active' AND email <> ''").
		Pluck("email", &emails).Error
	return emails, err
}

// ListDigestRecipients 订阅了每日汇总邮件的用户地址
func (r *UserRepository) ListDigestRecipients() ([]string, error) {
	var emails []string
	err := r.db.Model(&entity.User{}).
		Where("daily_digest = true AND status = 'active' AND email <> ''").
		Pluck("email", &emails).Error
	return emails, err
}
