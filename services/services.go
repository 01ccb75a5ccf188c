package services

import (
	"vehicleoffer_go/config"
	"vehicleoffer_go/repository"
	"vehicleoffer_go/storage"
	"vehicleoffer_go/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies 服务依赖，Redis 可为 nil
type Dependencies struct {
	Store  *repository.Store
	Images storage.ImageStore
	Redis  *redis.Client
	JWT    *config.JWTService
	Market *config.MarketConfig
	Logger *zap.Logger
}

// Services 全部业务服务
type Services struct {
	Auth     *AuthService
	Listings *ListingService
	Offers   *OfferService
	Images   *ImageService
	Events   *EventPublisher
}

// New 创建全部业务服务
func New(deps Dependencies) *Services {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	market := deps.Market
	if market == nil {
		market = config.GetMarketConfig()
	}

	events := NewEventPublisher(deps.Redis, logger.Named("events"))
	uploader := utils.NewFileUploader(deps.Images, deps.Redis, logger.Named("uploader"), &utils.UploadConfig{
		MaxFileSize:    market.MaxImageSize,
		MaxFiles:       market.MaxImages,
		AllowedFormats: utils.DefaultUploadConfig.AllowedFormats,
	})

	return &Services{
		Auth:     NewAuthService(deps.Store.Profiles, deps.JWT, deps.Redis, logger.Named("auth")),
		Listings: NewListingService(deps.Store, deps.Redis, events, market, logger.Named("listings")),
		Offers:   NewOfferService(deps.Store, deps.Redis, events, market, logger.Named("offers")),
		Images:   NewImageService(uploader, logger.Named("images")),
		Events:   events,
	}
}
