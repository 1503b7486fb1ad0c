package handler

import (
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

type ItemHandler struct {
	svc      *service.ItemService
	photoSvc *service.PhotoService
}

func NewItemHandler(svc *service.ItemService, photoSvc *service.PhotoService) *ItemHandler {
	return &ItemHandler{svc: svc, photoSvc: photoSvc}
}

func (h *ItemHandler) Create(c *gin.Context) {
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	item, err := h.svc.Create(req, operatorName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": item})
}

func (h *ItemHandler) Update(c *gin.Context) {
	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	item, err := h.svc.Update(c.Param("id"), req, operatorName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": item})
}

func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": item})
}

// Lookup 扫码查询
// GET /items/lookup?code=xxx，code可以是条码、二维码或物品编码
func (h *ItemHandler) Lookup(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "code不能为空"})
		return
	}
	item, err := h.svc.Lookup(code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": item})
}

func (h *ItemHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.ItemListParams{
		Keyword:  c.Query("keyword"),
		LowStock: c.Query("low_stock") == "true",
		Page:     page,
		Size:     size,
	}
	items, total, err := h.svc.List(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": items, "total": total, "page": page, "size": size}})
}

func (h *ItemHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id"), operatorName(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

// UploadPhoto 上传物品照片并关联到档案
// POST /items/:id/photo，multipart字段名file
func (h *ItemHandler) UploadPhoto(c *gin.Context) {
	item, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "无法解析上传文件: " + err.Error()})
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": "读取上传文件失败: " + err.Error()})
		return
	}
	defer src.Close()

	objectName, err := h.photoSvc.UploadItemPhoto(c.Request.Context(), item, fileHeader.Filename,
		src, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.svc.SetPhotoURL(item.ID, objectName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"photo_url": objectName}})
}

// PhotoURL 生成照片的临时访问地址
// GET /items/:id/photo
func (h *ItemHandler) PhotoURL(c *gin.Context) {
	item, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if item.PhotoURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": "物品没有照片"})
		return
	}
	url, err := h.photoSvc.PresignPhotoURL(c.Request.Context(), item.PhotoURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"url": url}})
}
