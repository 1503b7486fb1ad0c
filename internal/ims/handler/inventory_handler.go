package handler

import (
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// RecordUsage 扫码领用
func (h *InventoryHandler) RecordUsage(c *gin.Context) {
	var req service.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	usage, err := h.svc.RecordUsage(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": usage})
}

func (h *InventoryHandler) ListUsages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.UsageListParams{
		ItemID:     c.Query("item_id"),
		UserName:   c.Query("user_name"),
		Department: c.Query("department"),
		Page:       page,
		Size:       size,
	}
	usages, total, err := h.svc.ListUsages(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": usages, "total": total, "page": page, "size": size}})
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// AddPending 手工登记在途数量
// POST /items/:id/pending
func (h *InventoryHandler) AddPending(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	item, err := h.svc.AddPendingQuantity(c.Param("id"), req.Quantity, operatorName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": item})
}

// ConfirmRestock 确认到货入库
// POST /items/:id/restock
func (h *InventoryHandler) ConfirmRestock(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	item, err := h.svc.ConfirmRestock(c.Param("id"), req.Quantity, operatorName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": item})
}
