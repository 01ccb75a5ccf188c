package controllers

import (
	"errors"

	"vehicleoffer_go/services"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bindJSON 绑定请求体，失败时直接写出 400/422 响应
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var ve *utils.ValidationError
		if errors.As(utils.FormatBindingError(err), &ve) {
			utils.ValidationFailed(c, ve.Errors)
			return false
		}
		utils.BadRequest(c, "invalid request body")
		return false
	}
	return true
}

// respondError 将业务错误映射为HTTP状态与业务码
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.ValidationFailed(c, ve.Errors)
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrInvalidCredentials):
		utils.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrWindowClosed),
		errors.Is(err, services.ErrListingNotActive),
		errors.Is(err, services.ErrOfferAlreadyAccepted):
		utils.Conflict(c, err.Error())
	case errors.Is(err, services.ErrTooManyAttempts):
		utils.TooManyRequests(c, err.Error())
	case errors.Is(err, services.ErrConnectivity):
		logger.Warn("data store unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		utils.ServiceUnavailable(c, services.ConnectivityMessage(err))
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.InternalError(c, "")
	}
}
