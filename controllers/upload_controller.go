package controllers

import (
	"vehicleoffer_go/middleware"
	"vehicleoffer_go/services"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadController 图片上传控制器
type UploadController struct {
	imageService *services.ImageService
	logger       *zap.Logger
}

// NewUploadController 创建上传控制器实例
func NewUploadController(imageService *services.ImageService, logger *zap.Logger) *UploadController {
	return &UploadController{imageService: imageService, logger: logger}
}

// UploadImages 上传车辆图片（multipart 字段 images）
// @Router /api/uploads/images [post]
func (uc *UploadController) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequest(c, "multipart form with field 'images' is required")
		return
	}

	urls, err := uc.imageService.Upload(c.Request.Context(), middleware.SessionFrom(c), form.File["images"])
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}

	utils.Created(c, "Images uploaded", gin.H{"urls": urls})
}
