package controllers

import (
	"vehicleoffer_go/middleware"
	"vehicleoffer_go/services"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthController 认证控制器
type AuthController struct {
	authService *services.AuthService
	logger      *zap.Logger
}

// NewAuthController 创建认证控制器实例
func NewAuthController(authService *services.AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{authService: authService, logger: logger}
}

// SignUp 用户注册
// @Router /api/auth/signup [post]
func (ac *AuthController) SignUp(c *gin.Context) {
	var req services.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ac.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	utils.Created(c, "Registration successful", result)
}

// SignIn 用户登录
// @Router /api/auth/signin [post]
func (ac *AuthController) SignIn(c *gin.Context) {
	var req services.SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ac.authService.SignIn(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "Login successful", result)
}

// SignOut 注销当前token
// @Router /api/auth/signout [post]
func (ac *AuthController) SignOut(c *gin.Context) {
	if err := ac.authService.SignOut(c.Request.Context(), middleware.TokenFrom(c)); err != nil {
		respondError(c, ac.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "Signed out", nil)
}

// Me 当前登录用户
// @Router /api/auth/me [get]
func (ac *AuthController) Me(c *gin.Context) {
	profile, err := ac.authService.CurrentUser(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	utils.Success(c, profile)
}
