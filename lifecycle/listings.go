package lifecycle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"vehicleoffer_go/models"
)

// OfferWindow 出价窗口长度
const OfferWindow = 24 * time.Hour

// MaxImages 每个发布允许的最大图片数
const MaxImages = 10

// MaxAmount 金额上限（不含），对应 decimal(14,2) 列
const MaxAmount = 1e12

// EffectiveStatus 计算展示状态
// sold/closed 以持久化状态为准；active 且窗口已过期时推导为 closed
func EffectiveStatus(listing *models.Listing, now time.Time) string {
	if listing.Status != models.ListingStatusActive {
		return listing.Status
	}
	if !IsWindowOpen(listing.EndTime, now) {
		return models.ListingStatusClosed
	}
	return models.ListingStatusActive
}

// ValidateNewListing 校验新建发布的价格与图片
// 返回 字段 -> 错误信息
func ValidateNewListing(askingPrice, minimumPrice float64, imageCount int) map[string]string {
	errs := make(map[string]string)

	if msg := amountError("Asking price", askingPrice); msg != "" {
		errs["asking_price"] = msg
	}
	if msg := amountError("Minimum acceptable price", minimumPrice); msg != "" {
		errs["minimum_acceptable_price"] = msg
	} else if validAmount(askingPrice) && minimumPrice > askingPrice {
		errs["minimum_acceptable_price"] = "Minimum acceptable price cannot be higher than asking price"
	}
	switch {
	case imageCount < 1:
		errs["image_urls"] = "Please upload at least one image"
	case imageCount > MaxImages:
		errs["image_urls"] = fmt.Sprintf("Maximum is %d images", MaxImages)
	}

	return errs
}

// WindowFor 根据开始时间计算窗口结束时间
func WindowFor(start time.Time) (time.Time, time.Time) {
	return start, start.Add(OfferWindow)
}

// FilterListings 按标题或地点做不区分大小写的子串匹配
func FilterListings(listings []models.Listing, query string) []models.Listing {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return listings
	}

	filtered := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if strings.Contains(strings.ToLower(l.Title), q) || strings.Contains(strings.ToLower(l.Location), q) {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

// PartitionByStatus 将卖家的发布分为 active 与非 active 两组（按持久化状态）
func PartitionByStatus(listings []models.Listing) (active, inactive []models.Listing) {
	active = make([]models.Listing, 0, len(listings))
	inactive = make([]models.Listing, 0)
	for _, l := range listings {
		if l.Status == models.ListingStatusActive {
			active = append(active, l)
		} else {
			inactive = append(inactive, l)
		}
	}
	return active, inactive
}

// FormatCurrency 格式化为 LKR 金额（无小数）
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "LKR -"
	}
	n := math.Round(amount)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatFloat(n, 'f', 0, 64)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return "LKR " + sign + b.String()
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 && v < MaxAmount
}

func amountError(label string, v float64) string {
	switch {
	case validAmount(v):
		return ""
	case v >= MaxAmount && !math.IsInf(v, 0):
		return fmt.Sprintf("%s must be below %s", label, FormatCurrency(MaxAmount))
	default:
		return label + " must be greater than zero"
	}
}
