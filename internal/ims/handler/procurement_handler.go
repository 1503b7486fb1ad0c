package handler

import (
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

type ProcurementHandler struct {
	svc *service.ProcurementService
}

func NewProcurementHandler(svc *service.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{svc: svc}
}

func (h *ProcurementHandler) Create(c *gin.Context) {
	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	po, err := h.svc.CreatePO(req, operatorName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": po})
}

func (h *ProcurementHandler) Update(c *gin.Context) {
	var req service.UpdatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	po, err := h.svc.UpdatePO(c.Param("id"), req, operatorName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": po})
}

// MarkArrived 到货确认，重复确认返回409
// POST /purchase-orders/:id/arrive
func (h *ProcurementHandler) MarkArrived(c *gin.Context) {
	po, err := h.svc.MarkArrived(c.Param("id"), operatorName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": po})
}

func (h *ProcurementHandler) Get(c *gin.Context) {
	po, err := h.svc.GetPO(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": po})
}

func (h *ProcurementHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.POListParams{
		ItemID: c.Query("item_id"),
		Page:   page,
		Size:   size,
	}
	if v := c.Query("arrived"); v != "" {
		arrived := v == "true"
		params.Arrived = &arrived
	}
	pos, total, err := h.svc.ListPOs(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": pos, "total": total, "page": page, "size": size}})
}
