package service

import (
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
)

// ActivityLogService 操作日志查询
type ActivityLogService struct {
	repo *repository.ActivityLogRepository
}

func NewActivityLogService(repo *repository.ActivityLogRepository) *ActivityLogService {
	return &ActivityLogService{repo: repo}
}

func (s *ActivityLogService) List(params repository.ActivityLogListParams) ([]entity.ActivityLog, int64, error) {
	return s.repo.List(params)
}
