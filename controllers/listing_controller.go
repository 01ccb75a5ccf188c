package controllers

import (
	"vehicleoffer_go/middleware"
	"vehicleoffer_go/services"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListingController 发布控制器
type ListingController struct {
	listingService *services.ListingService
	logger         *zap.Logger
}

// NewListingController 创建发布控制器实例
func NewListingController(listingService *services.ListingService, logger *zap.Logger) *ListingController {
	return &ListingController{listingService: listingService, logger: logger}
}

// GetListings 在售列表，q 按标题/地点过滤
// @Router /api/listings [get]
func (lc *ListingController) GetListings(c *gin.Context) {
	views, err := lc.listingService.ListActive(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}

	utils.Success(c, views)
}

// GetListing 发布详情
// @Router /api/listings/{id} [get]
func (lc *ListingController) GetListing(c *gin.Context) {
	view, err := lc.listingService.Get(c.Request.Context(), c.Param("id"), middleware.SessionFrom(c))
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}

	utils.Success(c, view)
}

// CreateListing 卖家新建发布
// @Router /api/listings [post]
func (lc *ListingController) CreateListing(c *gin.Context) {
	var req services.CreateListingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := lc.listingService.Create(c.Request.Context(), middleware.SessionFrom(c), &req)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}

	utils.Created(c, "Listing created", listing)
}

// GetMyListings 卖家面板
// @Router /api/listings/mine [get]
func (lc *ListingController) GetMyListings(c *gin.Context) {
	dashboard, err := lc.listingService.Dashboard(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}

	utils.Success(c, dashboard)
}
