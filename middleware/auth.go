package middleware

import (
	"context"
	"strings"

	"vehicleoffer_go/config"
	"vehicleoffer_go/services"
	"vehicleoffer_go/utils"

	"github.com/gin-gonic/gin"
)

// gin上下文键
const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
	ContextToken  = "token"
)

// Authenticator 校验token
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*config.Claims, error)
}

// bearerToken 从 Authorization 头读取 Bearer token
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setClaims(c *gin.Context, token string, claims *config.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextClaims, claims)
	c.Set(ContextToken, token)
}

// AuthMiddleware 必须登录
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		setClaims(c, token, claims)
		c.Next()
	}
}

// OptionalAuth 可选登录：token有效时写入上下文，无效或缺失时按匿名处理
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				setClaims(c, token, claims)
			}
		}
		c.Next()
	}
}

// RequireRole 要求指定角色，需在 AuthMiddleware 之后使用
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFrom(c)
		if session == nil {
			utils.Unauthorized(c, "")
			c.Abort()
			return
		}
		if session.Role != role {
			utils.Forbidden(c, "this action requires the "+role+" role")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom 当前请求的会话，匿名返回nil
func SessionFrom(c *gin.Context) *services.Session {
	value, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, ok := value.(*config.Claims)
	if !ok {
		return nil
	}
	return services.SessionFromClaims(claims)
}

// TokenFrom 当前请求的原始token
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextToken)
}
