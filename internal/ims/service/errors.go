package service

import (
	"errors"
	"fmt"
)

// 业务错误。台账/采购类错误必须返回给调用方，由handler映射HTTP状态码；
// 通知投递错误是唯一允许内部吞掉的类别（只记日志）。
var (
	ErrItemNotFound    = errors.New("物品不存在")
	ErrPONotFound      = errors.New("采购单不存在")
	ErrUserNotFound    = errors.New("用户不存在")
	ErrAlertNotFound   = errors.New("预警不存在")
	ErrAlreadyArrived  = errors.New("采购单已到货，不允许再次操作")
	ErrInvalidQuantity = errors.New("数量必须大于0")
	ErrCodeExists      = errors.New("物品编码已存在")
	ErrUsernameExists  = errors.New("用户名已存在")
)

// InsufficientInventoryError 库存不足，携带可用量与请求量
type InsufficientInventoryError struct {
	Available int
	Requested int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("库存不足: 需要%d, 可用%d", e.Requested, e.Available)
}
