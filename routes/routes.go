package routes

import (
	"time"

	"vehicleoffer_go/config"
	"vehicleoffer_go/controllers"
	"vehicleoffer_go/middleware"
	"vehicleoffer_go/models"
	"vehicleoffer_go/services"
	"vehicleoffer_go/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies 路由依赖
type Dependencies struct {
	Services  *services.Services
	Hub       *websocket.Hub
	Redis     *redis.Client
	Market    *config.MarketConfig
	Origins   []string
	AccessLog *middleware.AccessLogger
	// UploadDir 本地存储目录，非空时以 /uploads 提供静态访问
	UploadDir string
	Logger    *zap.Logger
}

// SetupRoutes 设置路由
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := deps.Services

	// 全局中间件
	r.Use(middleware.CORS(deps.Origins))
	if deps.AccessLog != nil {
		r.Use(deps.AccessLog.Middleware())
	}

	if deps.UploadDir != "" {
		r.Static("/uploads", deps.UploadDir)
	}

	authRequired := middleware.AuthMiddleware(svc.Auth)
	authOptional := middleware.OptionalAuth(svc.Auth)
	sellerOnly := middleware.RequireRole(models.RoleSeller)

	authController := controllers.NewAuthController(svc.Auth, logger)
	userController := controllers.NewUserController(svc.Auth, logger)
	listingController := controllers.NewListingController(svc.Listings, logger)
	offerController := controllers.NewOfferController(svc.Offers, logger)
	uploadController := controllers.NewUploadController(svc.Images, logger)
	searchController := controllers.NewSearchController(svc.Listings, logger)

	offerLimit := 10
	if deps.Market != nil {
		offerLimit = deps.Market.OfferRateLimit
	}

	api := r.Group("/api")
	{
		// ====== 认证路由 ======
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authController.SignUp)
			auth.POST("/signin", middleware.RateLimit(deps.Redis, "signin", 20, time.Minute), authController.SignIn)
			auth.POST("/signout", authRequired, authController.SignOut)
			auth.GET("/me", authRequired, authController.Me)
		}

		// ====== 用户路由 ======
		api.GET("/users/:id", userController.GetUserProfile)

		// ====== 发布路由 ======
		listings := api.Group("/listings")
		{
			listings.GET("", listingController.GetListings)
			listings.POST("", authRequired, sellerOnly, listingController.CreateListing)
			listings.GET("/mine", authRequired, sellerOnly, listingController.GetMyListings)
			listings.GET("/:id", authOptional, listingController.GetListing)

			listings.GET("/:id/offers", authRequired, offerController.GetOffers)
			listings.POST("/:id/offers", authOptional,
				middleware.RateLimit(deps.Redis, "offers", offerLimit, time.Minute),
				offerController.CreateOffer)
			listings.POST("/:id/offers/:offerId/accept", authRequired, sellerOnly, offerController.AcceptOffer)
		}

		// ====== 上传路由 ======
		api.POST("/uploads/images", authRequired, sellerOnly, uploadController.UploadImages)

		// ====== 搜索路由 ======
		api.GET("/search/hot", searchController.GetHotSearchKeywords)
	}

	// ====== WebSocket路由 ======
	if deps.Hub != nil {
		r.GET("/ws/listings/:id", deps.Hub.HandleConnection)
	}
}
