package controllers

import (
	"vehicleoffer_go/services"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserController 用户控制器
type UserController struct {
	authService *services.AuthService
	logger      *zap.Logger
}

// NewUserController 创建用户控制器实例
func NewUserController(authService *services.AuthService, logger *zap.Logger) *UserController {
	return &UserController{authService: authService, logger: logger}
}

// GetUserProfile 公开资料：不含邮箱
// @Router /api/users/{id} [get]
func (uc *UserController) GetUserProfile(c *gin.Context) {
	profile, err := uc.authService.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}

	utils.Success(c, gin.H{
		"id":         profile.ID,
		"name":       profile.Name,
		"role":       profile.Role,
		"created_at": profile.CreatedAt,
	})
}
