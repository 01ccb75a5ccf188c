package config

import (
	"os"
	"strconv"
	"time"
)

// GetEnv 获取环境变量，如果不存在则返回默认值
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvInt 获取环境变量（整型）
func GetEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// GetEnvInt64 获取环境变量（int64）
func GetEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// GetEnvBool 获取环境变量（布尔型）
func GetEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// GetEnvDuration 获取环境变量（时长，如 "24h"、"500ms"）
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// MarketConfig 交易规则配置
type MarketConfig struct {
	ReadRetryAttempts int           // 读操作最大尝试次数
	ReadRetryBase     time.Duration // 线性退避基础间隔
	MaxImages         int           // 每个发布最多图片数
	MaxImageSize      int64         // 单张图片最大字节数
	OfferRateLimit    int           // 每个IP每分钟最多出价次数
	ActiveCacheTTL    time.Duration // 在售列表缓存时间
	CountdownInterval time.Duration // 倒计时推送间隔
}

// GetMarketConfig 获取交易规则配置
func GetMarketConfig() *MarketConfig {
	return &MarketConfig{
		ReadRetryAttempts: GetEnvInt("READ_RETRY_ATTEMPTS", 3),
		ReadRetryBase:     GetEnvDuration("READ_RETRY_BASE", time.Second),
		MaxImages:         GetEnvInt("MAX_IMAGES", 10),
		MaxImageSize:      GetEnvInt64("MAX_IMAGE_SIZE", 10*1024*1024),
		OfferRateLimit:    GetEnvInt("OFFER_RATE_LIMIT", 10),
		ActiveCacheTTL:    GetEnvDuration("ACTIVE_CACHE_TTL", 30*time.Second),
		CountdownInterval: time.Second,
	}
}
