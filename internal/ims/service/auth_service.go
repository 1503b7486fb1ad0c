package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// refreshTokenKeyPrefix refresh token在redis中的key前缀
const refreshTokenKeyPrefix = "ims:refresh_token:"

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("用户名或密码错误")

// ErrInvalidRefreshToken refresh token无效或已过期
var ErrInvalidRefreshToken = errors.New("refresh token无效或已过期")

// AuthService 认证服务
// access token为无状态JWT，refresh token存redis可吊销
type AuthService struct {
	userRepo *repository.UserRepository
	rdb      *redis.Client
	cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		rdb:      rdb,
		cfg:      cfg,
	}
}

// TokenPair Token对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login 用户名密码登录
func (s *AuthService) Login(ctx context.Context, username, password string) (*entity.User, *TokenPair, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user.Status != "active" {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh 用refresh token换新的token对
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	key := refreshTokenKeyPrefix + refreshToken
	userID, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("读取refresh token失败: %w", err)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// 旧token作废，轮换新token
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("删除旧refresh token失败: %w", err)
	}
	return s.issueTokenPair(ctx, user)
}

// Logout 吊销refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.rdb.Del(ctx, refreshTokenKeyPrefix+refreshToken).Err()
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()
	expire := s.cfg.JWT.AccessTokenExpire

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"uid":   user.ID,
		"name":  user.Name,
		"email": user.Email,
		"roles": []string{user.Role},
		"iss":   s.cfg.JWT.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(expire).Unix(),
		"jti":   uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("签发access token失败: %w", err)
	}

	refreshToken := uuid.New().String()
	key := refreshTokenKeyPrefix + refreshToken
	if err := s.rdb.Set(ctx, key, user.ID, s.cfg.JWT.RefreshTokenExpire).Err(); err != nil {
		return nil, fmt.Errorf("保存refresh token失败: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(expire.Seconds()),
	}, nil
}
