package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 用户账号管理
type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

type CreateUserRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required,min=6"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Department  string `json:"department"`
	EmailAlerts bool   `json:"email_alerts"`
	DailyDigest bool   `json:"daily_digest"`
}

func (s *UserService) Create(req CreateUserRequest) (*entity.User, error) {
	if _, err := s.userRepo.GetByUsername(req.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询用户名失败: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	role := req.Role
	if role == "" {
		role = entity.RoleStaff
	}

	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		PasswordHash: string(hash),
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
		Department:   req.Department,
		EmailAlerts:  req.EmailAlerts,
		DailyDigest:  req.DailyDigest,
		Status:       "active",
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return user, nil
}

type UpdateUserRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Role        *string `json:"role"`
	Department  *string `json:"department"`
	EmailAlerts *bool   `json:"email_alerts"`
	DailyDigest *bool   `json:"daily_digest"`
	Status      *string `json:"status"`
}

func (s *UserService) Update(id string, req UpdateUserRequest) (*entity.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil && *req.Role != "" {
		user.Role = *req.Role
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.EmailAlerts != nil {
		user.EmailAlerts = *req.EmailAlerts
	}
	if req.DailyDigest != nil {
		user.DailyDigest = *req.DailyDigest
	}
	if req.Status != nil && *req.Status != "" {
		user.Status = *req.Status
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("更新用户失败: %w", err)
	}
	return user, nil
}

func (s *UserService) Get(id string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(page, size int) ([]entity.User, int64, error) {
	return s.userRepo.List(page, size)
}

func (s *UserService) Delete(id string) error {
	if _, err := s.userRepo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.userRepo.Delete(id)
}
