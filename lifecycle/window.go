package lifecycle

import (
	"context"
	"fmt"
	"time"
)

// Remaining 出价窗口剩余时间
type Remaining struct {
	Total   time.Duration `json:"-"`
	Hours   int           `json:"hours"`
	Minutes int           `json:"minutes"`
	Expired bool          `json:"expired"`
}

// TimeRemaining 计算 endTime - now，向下取整到小时和分钟
func TimeRemaining(endTime, now time.Time) Remaining {
	total := endTime.Sub(now)
	if total <= 0 {
		return Remaining{Expired: true}
	}

	return Remaining{
		Total:   total,
		Hours:   int(total / time.Hour),
		Minutes: int((total % time.Hour) / time.Minute),
	}
}

// IsWindowOpen 窗口是否仍接受出价（now < endTime）
func IsWindowOpen(endTime, now time.Time) bool {
	return now.Before(endTime)
}

// FormatTimeRemaining 格式化剩余时间
func FormatTimeRemaining(r Remaining) string {
	if r.Expired {
		return "Offer Window Closed"
	}
	if r.Hours > 0 {
		return fmt.Sprintf("%dh %dm", r.Hours, r.Minutes)
	}
	return fmt.Sprintf("%dm", r.Minutes)
}

// Countdown 周期性重新计算剩余时间
// 立即发送一次，之后每个interval发送一次；发送过期值或ctx取消后关闭通道
func Countdown(ctx context.Context, endTime time.Time, clock func() time.Time, interval time.Duration) <-chan Remaining {
	if clock == nil {
		clock = time.Now
	}
	out := make(chan Remaining, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			r := TimeRemaining(endTime, clock())
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
			if r.Expired {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}
