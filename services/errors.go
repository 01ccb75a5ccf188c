package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("authentication required")
	ErrForbidden            = errors.New("you don't have permission to perform this action")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailTaken           = errors.New("email already registered")
	ErrTooManyAttempts      = errors.New("too many attempts, please try again later")
	ErrConnectivity         = errors.New("data store unavailable")
	ErrWindowClosed         = errors.New("offer window is closed")
	ErrListingNotActive     = errors.New("listing is no longer accepting offers")
	ErrOfferAlreadyAccepted = errors.New("an offer has already been accepted for this listing")
)

// ConnectivityMessage 将连接类错误转换为用户可读信息
func ConnectivityMessage(err error) string {
	if err == nil {
		return "Unknown error occurred"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(msg, "timeout"):
		return "Request timed out. Please try again."
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "broken pipe"), strings.Contains(msg, "connection reset"):
		return "Network connection issue. Please check your connection and try again."
	default:
		return "Service temporarily unavailable. Please try again."
	}
}

// ValidationError 字段验证错误，Errors 为 字段 -> 信息
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Errors)
}
