package config

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RedisClient 全局 Redis 客户端实例（未启用时为nil）
var RedisClient *redis.Client

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// GetRedisConfig 获取Redis配置
func GetRedisConfig() *RedisConfig {
	return &RedisConfig{
		Enabled:  GetEnvBool("REDIS_ENABLED", true),
		Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
		Password: GetEnv("REDIS_PASSWORD", ""),
		DB:       GetEnvInt("REDIS_DB", 0),
	}
}

// InitializeRedis 初始化 Redis 客户端
func InitializeRedis(cfg *RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,              // 连接池大小
		MinIdleConns: 5,               // 最小空闲连接
		MaxRetries:   3,               // 最大重试次数
		DialTimeout:  5 * time.Second, // 连接超时
		ReadTimeout:  3 * time.Second, // 读取超时
		WriteTimeout: 3 * time.Second, // 写入超时
		PoolTimeout:  4 * time.Second, // 从连接池获取连接的超时
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	RedisClient = client
	log.Println("✅ Redis client initialized successfully")
	return client, nil
}

// CloseRedis 关闭 Redis 连接
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// ServerConfig 服务器配置结构
type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// GetServerConfig 获取服务器配置
func GetServerConfig() *ServerConfig {
	origins := GetEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173,http://localhost:4173")
	return &ServerConfig{
		Port:           GetEnv("SERVER_PORT", "8080"),
		Mode:           GetEnv("GIN_MODE", "debug"),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		AllowedOrigins: splitAndTrim(origins),
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SetupRouter 设置路由引擎与健康检查
func SetupRouter(serverConfig *ServerConfig, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	// 根据环境设置Gin模式
	gin.SetMode(serverConfig.Mode)

	r := gin.New()
	r.Use(gin.Recovery()) // 恢复panic

	// 健康检查端点（包括数据库和Redis状态）
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, HealthStatus(c.Request.Context(), db, rdb))
	})

	return r
}

// HealthStatus 检查数据库和Redis连接状态
func HealthStatus(ctx context.Context, db *gorm.DB, rdb *redis.Client) gin.H {
	health := gin.H{
		"status":  "ok",
		"message": "Server is running",
	}

	if db != nil {
		sqlDB, err := db.DB()
		if err == nil {
			if err := sqlDB.PingContext(ctx); err == nil {
				health["database"] = "connected"
			} else {
				health["database"] = "disconnected"
			}
		} else {
			health["database"] = "error"
		}
	} else {
		health["database"] = "not initialized"
	}

	if rdb != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err == nil {
			health["redis"] = "connected"
		} else {
			health["redis"] = "disconnected"
		}
	} else {
		health["redis"] = "not initialized"
	}

	return health
}
