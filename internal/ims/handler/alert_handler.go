package handler

import (
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	svc *service.AlertService
}

func NewAlertHandler(svc *service.AlertService) *AlertHandler {
	return &AlertHandler{svc: svc}
}

func (h *AlertHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.AlertListParams{
		ItemID: c.Query("item_id"),
		Page:   page,
		Size:   size,
	}
	if v := c.Query("resolved"); v != "" {
		resolved := v == "true"
		params.Resolved = &resolved
	}
	alerts, total, err := h.svc.List(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": alerts, "total": total, "page": page, "size": size}})
}

func (h *AlertHandler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

func (h *AlertHandler) MarkIgnored(c *gin.Context) {
	if err := h.svc.MarkIgnored(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

// CountUnresolved 未解除预警计数，前端角标用
func (h *AlertHandler) CountUnresolved(c *gin.Context) {
	count, err := h.svc.CountUnresolved()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"count": count}})
}
