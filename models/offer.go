package models

import (
	"time"

	"gorm.io/gorm"
)

// Offer 买家出价模型
// BuyerID 为空表示未登录用户提交的出价
type Offer struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ListingID   string    `gorm:"type:varchar(36);index;not null" json:"listing_id"`
	BuyerID     *string   `gorm:"type:varchar(36);index" json:"buyer_id"`
	BuyerName   string    `gorm:"type:varchar(100);not null" json:"buyer_name"`
	BuyerPhone  string    `gorm:"type:varchar(30);not null" json:"buyer_phone"`
	OfferAmount float64   `gorm:"type:decimal(14,2);not null;index" json:"offer_amount"`
	Accepted    bool      `gorm:"default:false;index" json:"accepted"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName 指定表名
func (Offer) TableName() string {
	return "offers"
}

// BeforeCreate 创建前钩子
func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = generateUUID()
	}
	return nil
}
