package handler

import (
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

type ActivityLogHandler struct {
	svc *service.ActivityLogService
}

func NewActivityLogHandler(svc *service.ActivityLogService) *ActivityLogHandler {
	return &ActivityLogHandler{svc: svc}
}

func (h *ActivityLogHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.ActivityLogListParams{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Page:       page,
		Size:       size,
	}
	logs, total, err := h.svc.List(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": logs, "total": total, "page": page, "size": size}})
}
