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

// ListingService 发布服务
type ListingService struct {
	store  *repository.Store
	cache  listingCache
	rdb    *redis.Client
	events *EventPublisher
	market *config.MarketConfig
	retry  RetryPolicy
	logger *zap.Logger
	now    func() time.Time

	// 浏览统计队列
	viewQueue chan string
}

// NewListingService 创建发布服务实例
func NewListingService(store *repository.Store, rdb *redis.Client, events *EventPublisher, market *config.MarketConfig, logger *zap.Logger) *ListingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if market == nil {
		market = config.GetMarketConfig()
	}
	ls := &ListingService{
		store:  store,
		cache:  listingCache{rdb: rdb, logger: logger},
		rdb:    rdb,
		events: events,
		market: market,
		retry:  RetryPolicy{Attempts: market.ReadRetryAttempts, Base: market.ReadRetryBase},
		logger: logger,
		now:    time.Now,
	}

	if rdb != nil {
		ls.viewQueue = make(chan string, 1000)
		for i := 0; i < 3; i++ {
			go ls.processViewStats()
		}
	}

	return ls
}

// SetClock 替换时钟
func (ls *ListingService) SetClock(now func() time.Time) {
	ls.now = now
}

// CreateListingRequest 新建发布请求
type CreateListingRequest struct {
	Title                  string   `json:"title" binding:"required,max=200"`
	Description            string   `json:"description" binding:"required"`
	AskingPrice            float64  `json:"asking_price"`
	MinimumAcceptablePrice float64  `json:"minimum_acceptable_price"`
	Location               string   `json:"location" binding:"required,max=200"`
	ImageURLs              []string `json:"image_urls" binding:"dive,required"`
}

// ListingView 发布及其出价概况
type ListingView struct {
	models.Listing
	EffectiveStatus   string              `json:"effective_status"`
	WindowOpen        bool                `json:"window_open"`
	TimeRemaining     lifecycle.Remaining `json:"time_remaining"`
	TimeRemainingText string              `json:"time_remaining_text"`
	BestOffer         *float64            `json:"best_offer"`
	WorstOffer        *float64            `json:"worst_offer"`
	OfferCount        int                 `json:"offer_count"`
	// Offers 仅对发布者可见
	Offers []models.Offer `json:"offers,omitempty"`
}

// Dashboard 卖家面板
type Dashboard struct {
	Active   []ListingView `json:"active"`
	Inactive []ListingView `json:"inactive"`
}

// buildView 组装视图；非发布者看不到最低价和出价明细
func buildView(listing models.Listing, offers []models.Offer, now time.Time, owner bool) ListingView {
	remaining := lifecycle.TimeRemaining(listing.EndTime, now)
	view := ListingView{
		EffectiveStatus:   lifecycle.EffectiveStatus(&listing, now),
		WindowOpen:        lifecycle.IsWindowOpen(listing.EndTime, now),
		TimeRemaining:     remaining,
		TimeRemainingText: lifecycle.FormatTimeRemaining(remaining),
		OfferCount:        len(offers),
	}
	if best, ok := lifecycle.BestOffer(offers); ok {
		view.BestOffer = &best
	}
	if worst, ok := lifecycle.WorstOffer(offers); ok {
		view.WorstOffer = &worst
	}

	listing.Offers = nil
	if owner {
		sorted := append([]models.Offer(nil), offers...)
		lifecycle.SortOffersByAmountDesc(sorted)
		view.Offers = sorted
	} else {
		listing.MinimumAcceptablePrice = 0
	}
	view.Listing = listing

	return view
}

// ListActive 在售列表，支持按标题/地点过滤
func (ls *ListingService) ListActive(ctx context.Context, query string) ([]ListingView, error) {
	listings, err := ls.activeListings(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query != "" {
		listings = lifecycle.FilterListings(listings, query)
		ls.recordSearchKeyword(ctx, query)
	}

	offers, err := ls.offersFor(ctx, listings)
	if err != nil {
		return nil, err
	}
	grouped := lifecycle.GroupOffersByListing(offers)

	now := ls.now()
	views := make([]ListingView, 0, len(listings))
	for _, l := range listings {
		views = append(views, buildView(l, grouped[l.ID], now, false))
	}
	return views, nil
}

// activeListings 读取持久化状态为active的发布（带缓存与重试）
func (ls *ListingService) activeListings(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	if ls.cache.get(ctx, activeListingsKey, &listings) {
		return listings, nil
	}

	listings, err := Retry(ctx, ls.retry, func(ctx context.Context) ([]models.Listing, error) {
		return ls.store.Listings.ListActive(ctx)
	})
	if err != nil {
		return nil, err
	}

	ls.cache.set(ctx, activeListingsKey, listings, ls.market.ActiveCacheTTL)
	return listings, nil
}

func (ls *ListingService) offersFor(ctx context.Context, listings []models.Listing) ([]models.Offer, error) {
	if len(listings) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	return Retry(ctx, ls.retry, func(ctx context.Context) ([]models.Offer, error) {
		return ls.store.Offers.ListByListings(ctx, ids...)
	})
}

// Get 发布详情
func (ls *ListingService) Get(ctx context.Context, id string, viewer *Session) (*ListingView, error) {
	listing, err := ls.load(ctx, id)
	if err != nil {
		return nil, err
	}

	offers, err := Retry(ctx, ls.retry, func(ctx context.Context) ([]models.Offer, error) {
		return ls.store.Offers.ListByListings(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	if ls.viewQueue != nil {
		select {
		case ls.viewQueue <- id:
		default:
		}
	}

	owner := viewer != nil && listing.OwnedBy(viewer.UserID)
	view := buildView(*listing, offers, ls.now(), owner)
	return &view, nil
}

// load 读取单个发布（带缓存与重试）
func (ls *ListingService) load(ctx context.Context, id string) (*models.Listing, error) {
	var cached models.Listing
	if ls.cache.get(ctx, listingKey(id), &cached) {
		return &cached, nil
	}

	listing, err := Retry(ctx, ls.retry, func(ctx context.Context) (*models.Listing, error) {
		return ls.store.Listings.Get(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ls.cache.set(ctx, listingKey(id), listing, 10*time.Minute)
	return listing, nil
}

// Create 卖家新建发布，出价窗口从服务器当前时间开始
func (ls *ListingService) Create(ctx context.Context, seller *Session, req *CreateListingRequest) (*models.Listing, error) {
	if err := requireSeller(seller); err != nil {
		return nil, err
	}

	if errs := lifecycle.ValidateNewListing(req.AskingPrice, req.MinimumAcceptablePrice, len(req.ImageURLs)); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	if ls.market.MaxImages > 0 && len(req.ImageURLs) > ls.market.MaxImages {
		return nil, &ValidationError{Errors: map[string]string{
			"image_urls": fmt.Sprintf("Maximum is %d images", ls.market.MaxImages),
		}}
	}

	start, end := lifecycle.WindowFor(ls.now().UTC())
	listing := &models.Listing{
		SellerID:               seller.UserID,
		Title:                  strings.TrimSpace(req.Title),
		Description:            strings.TrimSpace(req.Description),
		AskingPrice:            req.AskingPrice,
		MinimumAcceptablePrice: req.MinimumAcceptablePrice,
		Location:               strings.TrimSpace(req.Location),
		ImageURLs:              req.ImageURLs,
		Status:                 models.ListingStatusActive,
		StartTime:              start,
		EndTime:                end,
	}

	if err := ls.store.Listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	ls.cache.invalidate(ctx)
	if ls.events != nil {
		ls.events.Publish(ctx, EventListingCreated, listing.ID, map[string]interface{}{
			"title":    listing.Title,
			"end_time": listing.EndTime,
		})
	}

	ls.logger.Info("listing created",
		zap.String("listing_id", listing.ID),
		zap.String("seller_id", listing.SellerID),
		zap.Time("end_time", listing.EndTime),
	)
	return listing, nil
}

// Dashboard 卖家面板：按持久化状态分组，出价按金额倒序
func (ls *ListingService) Dashboard(ctx context.Context, seller *Session) (*Dashboard, error) {
	if err := requireSeller(seller); err != nil {
		return nil, err
	}

	listings, err := Retry(ctx, ls.retry, func(ctx context.Context) ([]models.Listing, error) {
		return ls.store.Listings.ListBySeller(ctx, seller.UserID)
	})
	if err != nil {
		return nil, err
	}

	offers, err := ls.offersFor(ctx, listings)
	if err != nil {
		return nil, err
	}
	grouped := lifecycle.GroupOffersByListing(offers)

	now := ls.now()
	active, inactive := lifecycle.PartitionByStatus(listings)
	dashboard := &Dashboard{
		Active:   make([]ListingView, 0, len(active)),
		Inactive: make([]ListingView, 0, len(inactive)),
	}
	for _, l := range active {
		dashboard.Active = append(dashboard.Active, buildView(l, grouped[l.ID], now, true))
	}
	for _, l := range inactive {
		dashboard.Inactive = append(dashboard.Inactive, buildView(l, grouped[l.ID], now, true))
	}
	return dashboard, nil
}

// HotKeywords 热门搜索关键词
func (ls *ListingService) HotKeywords(ctx context.Context, limit int) ([]string, error) {
	if ls.rdb == nil {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	keywords, err := ls.rdb.ZRevRange(ctx, hotSearchKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	return keywords, nil
}

// recordSearchKeyword 记录搜索关键词
func (ls *ListingService) recordSearchKeyword(ctx context.Context, query string) {
	if ls.rdb == nil {
		return
	}
	ls.rdb.ZIncrBy(ctx, hotSearchKey, 1, strings.ToLower(query))
	ls.rdb.Expire(ctx, hotSearchKey, 24*time.Hour)
}

// processViewStats 处理浏览统计
func (ls *ListingService) processViewStats() {
	ctx := context.Background()
	for id := range ls.viewQueue {
		ls.rdb.ZIncrBy(ctx, listingViewsKey, 1, id)
		ls.rdb.Expire(ctx, listingViewsKey, 7*24*time.Hour)
	}
}
