package middleware

import (
	"time"

	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit 按客户端IP限流，Redis不可用时放行
func RateLimit(rdb *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := scope + ":" + c.ClientIP()
		if !utils.APIRateLimit(c.Request.Context(), rdb, subject, limit, window) {
			utils.TooManyRequests(c, "too many requests, please slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
