package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vehicleoffer_go/config"
	"vehicleoffer_go/lifecycle"
	"vehicleoffer_go/models"
	"vehicleoffer_go/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OfferService 出价服务
type OfferService struct {
	store  *repository.Store
	cache  listingCache
	events *EventPublisher
	retry  RetryPolicy
	logger *zap.Logger
	now    func() time.Time
}

// NewOfferService 创建出价服务实例
func NewOfferService(store *repository.Store, rdb *redis.Client, events *EventPublisher, market *config.MarketConfig, logger *zap.Logger) *OfferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if market == nil {
		market = config.GetMarketConfig()
	}
	return &OfferService{
		store:  store,
		cache:  listingCache{rdb: rdb, logger: logger},
		events: events,
		retry:  RetryPolicy{Attempts: market.ReadRetryAttempts, Base: market.ReadRetryBase},
		logger: logger,
		now:    time.Now,
	}
}

// SetClock 替换时钟
func (ofs *OfferService) SetClock(now func() time.Time) {
	ofs.now = now
}

// SubmitOfferRequest 提交出价请求
type SubmitOfferRequest struct {
	BuyerName   string  `json:"buyer_name" binding:"required,max=100"`
	BuyerPhone  string  `json:"buyer_phone" binding:"required,phone"`
	OfferAmount float64 `json:"offer_amount"`
}

// AcceptResult 接受出价结果
type AcceptResult struct {
	Offer   *models.Offer   `json:"offer"`
	Listing *models.Listing `json:"listing"`
}

func (ofs *OfferService) getListing(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := Retry(ctx, ofs.retry, func(ctx context.Context) (*models.Listing, error) {
		return ofs.store.Listings.Get(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return listing, nil
}

// Submit 提交出价；buyer 为 nil 表示未登录买家
// 出价必须低于要价，且发布处于active并在窗口内
func (ofs *OfferService) Submit(ctx context.Context, buyer *Session, listingID string, req *SubmitOfferRequest) (*models.Offer, error) {
	listing, err := ofs.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if buyer != nil && listing.OwnedBy(buyer.UserID) {
		return nil, ErrForbidden
	}

	if listing.Status == models.ListingStatusActive && !lifecycle.IsWindowOpen(listing.EndTime, ofs.now()) {
		return nil, ErrWindowClosed
	}

	if err := lifecycle.ValidateOffer(req.OfferAmount, listing); err != nil {
		var rejection *lifecycle.Rejection
		if errors.As(err, &rejection) && rejection.Reason == lifecycle.ReasonListingNotActive {
			return nil, ErrListingNotActive
		}
		return nil, &ValidationError{Errors: map[string]string{"offer_amount": err.Error()}}
	}

	offer := &models.Offer{
		ListingID:   listing.ID,
		BuyerName:   strings.TrimSpace(req.BuyerName),
		BuyerPhone:  strings.TrimSpace(req.BuyerPhone),
		OfferAmount: req.OfferAmount,
	}
	if buyer != nil {
		buyerID := buyer.UserID
		offer.BuyerID = &buyerID
	}

	if err := ofs.store.Offers.Create(ctx, offer); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrListingNotActive):
			return nil, ErrListingNotActive
		}
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	if ofs.events != nil {
		ofs.events.Publish(ctx, EventOfferCreated, listing.ID, map[string]interface{}{
			"offer_id":     offer.ID,
			"offer_amount": offer.OfferAmount,
		})
	}

	ofs.logger.Info("offer submitted",
		zap.String("listing_id", listing.ID),
		zap.String("offer_id", offer.ID),
		zap.Bool("authenticated", buyer != nil),
	)
	return offer, nil
}

// Accept 卖家接受出价，出价与发布状态在同一事务中更新
func (ofs *OfferService) Accept(ctx context.Context, seller *Session, listingID, offerID string) (*AcceptResult, error) {
	if err := requireSeller(seller); err != nil {
		return nil, err
	}

	listing, err := ofs.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(seller.UserID) {
		return nil, ErrForbidden
	}

	offer, err := ofs.store.Offers.Accept(ctx, offerID, listingID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrListingNotActive):
			return nil, ErrListingNotActive
		case errors.Is(err, repository.ErrAlreadyAccepted):
			return nil, ErrOfferAlreadyAccepted
		}
		return nil, fmt.Errorf("failed to accept offer: %w", err)
	}

	listing.Status = models.ListingStatusSold
	ofs.cache.invalidate(ctx, listingID)

	if ofs.events != nil {
		ofs.events.Publish(ctx, EventListingSold, listingID, map[string]interface{}{
			"offer_id":     offer.ID,
			"offer_amount": offer.OfferAmount,
		})
	}

	ofs.logger.Info("offer accepted",
		zap.String("listing_id", listingID),
		zap.String("offer_id", offer.ID),
		zap.Float64("amount", offer.OfferAmount),
	)
	return &AcceptResult{Offer: offer, Listing: listing}, nil
}

// ListForListing 发布者查看出价，按金额倒序
func (ofs *OfferService) ListForListing(ctx context.Context, seller *Session, listingID string) ([]models.Offer, error) {
	if seller == nil {
		return nil, ErrUnauthorized
	}

	listing, err := ofs.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(seller.UserID) {
		return nil, ErrForbidden
	}

	return Retry(ctx, ofs.retry, func(ctx context.Context) ([]models.Offer, error) {
		return ofs.store.Offers.ListByListings(ctx, listingID)
	})
}
