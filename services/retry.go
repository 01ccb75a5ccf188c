package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vehicleoffer_go/repository"
)

// RetryPolicy 读操作重试策略：第 n 次失败后等待 n × Base
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
}

// DefaultRetryPolicy 默认最多3次，线性退避1秒
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Base: time.Second}

// Retry 执行读操作，失败时按线性退避重试
// not-found 与 ctx 取消不重试；重试耗尽返回 ErrConnectivity
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt < attempts-1 {
			timer := time.NewTimer(time.Duration(attempt+1) * policy.Base)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return zero, fmt.Errorf("%w: %w", ErrConnectivity, lastErr)
}

func retryable(err error) bool {
	var ve *ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, ErrNotFound),
		errors.Is(err, context.Canceled),
		errors.As(err, &ve):
		return false
	}
	return true
}
