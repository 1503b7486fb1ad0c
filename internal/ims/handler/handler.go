package handler

import (
	"errors"
	"net/http"

	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

// Handlers IMS HTTP处理器集合
type Handlers struct {
	Auth        *AuthHandler
	Item        *ItemHandler
	Inventory   *InventoryHandler
	Procurement *ProcurementHandler
	Alert       *AlertHandler
	User        *UserHandler
	ActivityLog *ActivityLogHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:        NewAuthHandler(services.Auth),
		Item:        NewItemHandler(services.Item, services.Photo),
		Inventory:   NewInventoryHandler(services.Inventory),
		Procurement: NewProcurementHandler(services.Procurement),
		Alert:       NewAlertHandler(services.Alert),
		User:        NewUserHandler(services.User),
		ActivityLog: NewActivityLogHandler(services.ActivityLog),
	}
}

// respondError 业务错误到HTTP响应的统一映射
func respondError(c *gin.Context, err error) {
	var insufficient *service.InsufficientInventoryError
	switch {
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrPONotFound),
		errors.Is(err, service.ErrAlertNotFound),
		errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
	case errors.Is(err, service.ErrAlreadyArrived):
		c.JSON(http.StatusConflict, gin.H{"code": 10003, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrCodeExists),
		errors.Is(err, service.ErrUsernameExists),
		errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, gin.H{"code": 40100, "message": err.Error()})
	case errors.Is(err, service.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": 50301, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

// operatorName 操作人显示名，取JWT里的name，缺失时退回user_id
func operatorName(c *gin.Context) string {
	if name := c.GetString("user_name"); name != "" {
		return name
	}
	return c.GetString("user_id")
}
