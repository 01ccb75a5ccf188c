package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"vehicleoffer_go/config"
	"vehicleoffer_go/middleware"
	"vehicleoffer_go/repository"
	"vehicleoffer_go/routes"
	"vehicleoffer_go/services"
	"vehicleoffer_go/storage"
	"vehicleoffer_go/utils"
	"vehicleoffer_go/websocket"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	serverConfig := config.GetServerConfig()

	// 初始化日志系统
	logger, err := middleware.InitLogger(serverConfig.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer middleware.FlushLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	var db *gorm.DB
	var store *repository.Store
	dbConfig := config.GetDatabaseConfig()
	if dbConfig.Driver == config.DriverMemory {
		logger.Warn("⚠️  Using in-memory store, data is lost on restart")
		store = repository.NewMemoryStore().Store()
	} else {
		db, err = config.InitDatabase(dbConfig)
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer config.CloseDatabase()

		if err := repository.AutoMigrate(db); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		store = repository.NewGormStore(db)
	}

	// 初始化Redis（可选）
	var rdb *redis.Client
	if redisConfig := config.GetRedisConfig(); redisConfig.Enabled {
		rdb, err = config.InitializeRedis(redisConfig)
		if err != nil {
			logger.Warn("⚠️  Redis unavailable, running without cache and realtime fan-out", zap.Error(err))
			rdb = nil
		} else {
			defer config.CloseRedis()
		}
	}

	// 初始化图片存储
	storageConfig := config.GetStorageConfig()
	images, err := storage.New(storageConfig)
	if err != nil {
		logger.Fatal("Failed to initialize image storage", zap.Error(err))
	}
	uploadDir := ""
	if local, ok := images.(*storage.LocalStore); ok {
		uploadDir = local.Root()
	}

	utils.RegisterValidators()

	market := config.GetMarketConfig()
	svc := services.New(services.Dependencies{
		Store:  store,
		Images: images,
		Redis:  rdb,
		JWT:    config.NewJWTService(config.GetJWTConfig()),
		Market: market,
		Logger: logger,
	})

	hub := websocket.NewHub(svc.Listings, svc.Events, rdb, market.CountdownInterval, logger.Named("ws"))
	hub.Run(ctx)

	accessLog := middleware.NewAccessLogger(logger.Named("access"), rdb, 3)
	defer accessLog.Close()

	// 设置路由
	r := config.SetupRouter(serverConfig, db, rdb)
	routes.SetupRoutes(r, routes.Dependencies{
		Services:  svc,
		Hub:       hub,
		Redis:     rdb,
		Market:    market,
		Origins:   serverConfig.AllowedOrigins,
		AccessLog: accessLog,
		UploadDir: uploadDir,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:         ":" + serverConfig.Port,
		Handler:      r,
		ReadTimeout:  serverConfig.ReadTimeout,
		WriteTimeout: serverConfig.WriteTimeout,
	}

	go func() {
		logger.Info("🚀 Server starting", zap.String("addr", srv.Addr), zap.String("mode", serverConfig.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}
