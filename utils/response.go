package utils

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`            // 业务状态码
	Message string      `json:"message"`         // 响应消息
	Data    interface{} `json:"data,omitempty"`  // 响应数据
	Error   string      `json:"error,omitempty"` // 错误信息
}

// 业务状态码常量
const (
	CodeSuccess             = 20000 // 成功
	CodeError               = 40000 // 错误
	CodeUnauthorized        = 40100 // 未授权
	CodeForbidden           = 40300 // 禁止访问
	CodeNotFound            = 40400 // 资源不存在
	CodeConflict            = 40900 // 状态冲突
	CodeTooManyRequests     = 42900 // 请求过于频繁
	CodeValidationError     = 42200 // 验证错误
	CodeInternalServerError = 50000 // 内部错误
	CodeServiceUnavailable  = 50300 // 依赖服务不可用
)

// 业务状态码对应的消息
var codeMessages = map[int]string{
	CodeSuccess:             "success",
	CodeError:               "bad request",
	CodeUnauthorized:        "unauthorized, please sign in",
	CodeForbidden:           "forbidden",
	CodeNotFound:            "resource not found",
	CodeConflict:            "conflict",
	CodeTooManyRequests:     "too many requests",
	CodeValidationError:     "validation failed",
	CodeInternalServerError: "internal server error",
	CodeServiceUnavailable:  "service temporarily unavailable",
}

// GetCodeMessage 获取状态码对应的消息
func GetCodeMessage(code int) string {
	if msg, exists := codeMessages[code]; exists {
		return msg
	}
	return "unknown error"
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: GetCodeMessage(CodeSuccess),
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, message string, data interface{}) {
	if message == "" {
		message = GetCodeMessage(CodeSuccess)
	}
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Fail 通用错误响应
func Fail(c *gin.Context, status, code int, message string, data interface{}) {
	if message == "" {
		message = GetCodeMessage(code)
	}
	c.JSON(status, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// BadRequest 请求格式错误
func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, CodeError, message, nil)
}

// ValidationFailed 字段验证错误，data 为 字段->信息
func ValidationFailed(c *gin.Context, errs map[string]string) {
	Fail(c, http.StatusUnprocessableEntity, CodeValidationError, "", gin.H{"errors": errs})
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Fail(c, http.StatusForbidden, CodeForbidden, message, nil)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, CodeNotFound, message, nil)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Fail(c, http.StatusConflict, CodeConflict, message, nil)
}

// TooManyRequests 限流响应
func TooManyRequests(c *gin.Context, message string) {
	Fail(c, http.StatusTooManyRequests, CodeTooManyRequests, message, nil)
}

// ServiceUnavailable 依赖服务不可用
func ServiceUnavailable(c *gin.Context, message string) {
	Fail(c, http.StatusServiceUnavailable, CodeServiceUnavailable, message, nil)
}

// InternalError 内部错误响应
func InternalError(c *gin.Context, message string) {
	Fail(c, http.StatusInternalServerError, CodeInternalServerError, message, nil)
}

// APIRateLimit API限流（使用Redis INCR/EXPIRE）
// Redis不可用时不限流
func APIRateLimit(ctx context.Context, rdb *redis.Client, subject string, limit int, duration time.Duration) bool {
	if rdb == nil || limit <= 0 {
		return true
	}

	key := fmt.Sprintf("ratelimit:api:%s", subject)

	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return true
	}

	// 第一次请求，设置过期时间
	if count == 1 {
		rdb.Expire(ctx, key, duration)
	}

	return count <= int64(limit)
}
