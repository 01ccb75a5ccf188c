package repository

import (
	"context"
	"errors"

	"vehicleoffer_go/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrConflict         = errors.New("record already exists")
	ErrListingNotActive = errors.New("listing is not active")
	ErrAlreadyAccepted  = errors.New("listing already has an accepted offer")
)

// ProfileRepository 用户资料数据访问
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	Get(ctx context.Context, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
}

// ListingRepository 发布数据访问
type ListingRepository interface {
	// ListActive 返回持久化状态为active的发布，按创建时间倒序
	ListActive(ctx context.Context) ([]models.Listing, error)
	// ListBySeller 返回卖家全部发布，按创建时间倒序
	ListBySeller(ctx context.Context, sellerID string) ([]models.Listing, error)
	Get(ctx context.Context, id string) (*models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) error
	UpdateStatus(ctx context.Context, id, status string) error
}

// OfferRepository 出价数据访问
type OfferRepository interface {
	// ListByListings 返回指定发布的出价，按金额倒序
	ListByListings(ctx context.Context, listingIDs ...string) ([]models.Offer, error)
	// Create 写入出价，发布非active时返回 ErrListingNotActive
	Create(ctx context.Context, offer *models.Offer) error
	SetAccepted(ctx context.Context, id string, accepted bool) error
	// Accept 在同一事务中将出价标记为已接受并将发布标记为sold
	Accept(ctx context.Context, offerID, listingID string) (*models.Offer, error)
}

// Store 聚合全部数据访问接口
type Store struct {
	Profiles ProfileRepository
	Listings ListingRepository
	Offers   OfferRepository
}
