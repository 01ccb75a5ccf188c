package controllers

import (
	"strconv"

	"vehicleoffer_go/services"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SearchController 搜索控制器
type SearchController struct {
	listingService *services.ListingService
	logger         *zap.Logger
}

// NewSearchController 创建搜索控制器实例
func NewSearchController(listingService *services.ListingService, logger *zap.Logger) *SearchController {
	return &SearchController{listingService: listingService, logger: logger}
}

// GetHotSearchKeywords 热门搜索关键词
// @Router /api/search/hot [get]
func (sc *SearchController) GetHotSearchKeywords(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	keywords, err := sc.listingService.HotKeywords(c.Request.Context(), limit)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}

	utils.Success(c, gin.H{"keywords": keywords})
}
