package service

import (
	"errors"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"gorm.io/gorm"
)

// AlertService 预警查询与已读/忽略标记。
// 建单/销单只归预警引擎管，这里不碰resolved状态。
type AlertService struct {
	alertRepo *repository.AlertRepository
	clock     Clock
}

func NewAlertService(alertRepo *repository.AlertRepository, clock Clock) *AlertService {
	return &AlertService{alertRepo: alertRepo, clock: clock}
}

func (s *AlertService) List(params repository.AlertListParams) ([]entity.Alert, int64, error) {
	return s.alertRepo.List(params)
}

func (s *AlertService) MarkRead(id string) error {
	if _, err := s.alertRepo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return s.alertRepo.MarkRead(id, s.clock.Now())
}

func (s *AlertService) MarkIgnored(id string) error {
	if _, err := s.alertRepo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return s.alertRepo.MarkIgnored(id, s.clock.Now())
}

func (s *AlertService) CountUnresolved() (int64, error) {
	return s.alertRepo.CountUnresolved()
}
