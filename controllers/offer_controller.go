package controllers

import (
	"vehicleoffer_go/middleware"
	"vehicleoffer_go/services"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OfferController 出价控制器
type OfferController struct {
	offerService *services.OfferService
	logger       *zap.Logger
}

// NewOfferController 创建出价控制器实例
func NewOfferController(offerService *services.OfferService, logger *zap.Logger) *OfferController {
	return &OfferController{offerService: offerService, logger: logger}
}

// GetOffers 发布者查看全部出价
// @Router /api/listings/{id}/offers [get]
func (oc *OfferController) GetOffers(c *gin.Context) {
	offers, err := oc.offerService.ListForListing(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, oc.logger, err)
		return
	}

	utils.Success(c, offers)
}

// CreateOffer 提交出价，无需登录
// @Router /api/listings/{id}/offers [post]
func (oc *OfferController) CreateOffer(c *gin.Context) {
	var req services.SubmitOfferRequest
	if !bindJSON(c, &req) {
		return
	}

	offer, err := oc.offerService.Submit(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, oc.logger, err)
		return
	}

	utils.Created(c, "Offer submitted", offer)
}

// AcceptOffer 卖家接受出价
// @Router /api/listings/{id}/offers/{offerId}/accept [post]
func (oc *OfferController) AcceptOffer(c *gin.Context) {
	result, err := oc.offerService.Accept(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), c.Param("offerId"))
	if err != nil {
		respondError(c, oc.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "Offer accepted", result)
}
