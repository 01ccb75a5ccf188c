package models

import (
	"time"

	"gorm.io/gorm"
)

// 发布状态
const (
	ListingStatusActive = "active"
	ListingStatusClosed = "closed"
	ListingStatusSold   = "sold"
)

// Listing 车辆发布模型
type Listing struct {
	ID                     string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SellerID               string    `gorm:"type:varchar(36);index;not null" json:"seller_id"`
	Title                  string    `gorm:"type:varchar(200);not null;index" json:"title"`
	Description            string    `gorm:"type:text" json:"description"`
	AskingPrice            float64   `gorm:"type:decimal(14,2);not null" json:"asking_price"`
	MinimumAcceptablePrice float64   `gorm:"type:decimal(14,2);not null;comment:卖家私有底价" json:"minimum_acceptable_price,omitempty"`
	Location               string    `gorm:"type:varchar(200);index" json:"location"`
	ImageURLs              []string  `gorm:"type:text;serializer:json;comment:有序图片URL JSON数组" json:"image_urls"`
	Status                 string    `gorm:"type:varchar(20);default:active;index;comment:active,closed,sold" json:"status"`
	StartTime              time.Time `gorm:"not null" json:"start_time"`
	EndTime                time.Time `gorm:"not null;index;comment:start_time+24h，创建后不可修改" json:"end_time"`
	CreatedAt              time.Time `gorm:"index" json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`

	// 关联关系
	Seller *Profile `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Offers []Offer  `gorm:"foreignKey:ListingID" json:"offers,omitempty"`
}

// TableName 指定表名
func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate 创建前钩子
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	if l.Status == "" {
		l.Status = ListingStatusActive
	}
	return nil
}

// OwnedBy 判断发布是否属于指定卖家
func (l *Listing) OwnedBy(userID string) bool {
	return userID != "" && l.SellerID == userID
}
