package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vehicleoffer_go/lifecycle"
	"vehicleoffer_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewGormStore 基于gorm构建数据访问层
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Profiles: &gormProfileRepository{db: db},
		Listings: &gormListingRepository{db: db},
		Offers:   &gormOfferRepository{db: db},
	}
}

// AutoMigrate 自动迁移表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Profile{}, &models.Listing{}, &models.Offer{})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isDuplicateKey(err):
		return ErrConflict
	default:
		return err
	}
}

// isDuplicateKey 兼容未开启 TranslateError 的驱动
func isDuplicateKey(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "duplicate key value")
}

type gormProfileRepository struct {
	db *gorm.DB
}

func (r *gormProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return translate(r.db.WithContext(ctx).Create(profile).Error)
}

func (r *gormProfileRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *gormProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

type gormListingRepository struct {
	db *gorm.DB
}

func (r *gormListingRepository) ListActive(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ListingStatusActive).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, translate(err)
}

func (r *gormListingRepository) ListBySeller(ctx context.Context, sellerID string) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, translate(err)
}

func (r *gormListingRepository) Get(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &listing, nil
}

func (r *gormListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	return translate(r.db.WithContext(ctx).Create(listing).Error)
}

func (r *gormListingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormOfferRepository struct {
	db *gorm.DB
}

func (r *gormOfferRepository) ListByListings(ctx context.Context, listingIDs ...string) ([]models.Offer, error) {
	if len(listingIDs) == 0 {
		return []models.Offer{}, nil
	}

	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Where("listing_id IN ?", listingIDs).
		Order("offer_amount DESC").
		Order("created_at ASC").
		Find(&offers).Error
	return offers, translate(err)
}

// Create 锁定发布行后写入出价，与 Accept 互斥
func (r *gormOfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&listing, "id = ?", offer.ListingID).Error; err != nil {
			return translate(err)
		}
		if listing.Status != models.ListingStatusActive {
			return ErrListingNotActive
		}
		return translate(tx.Create(offer).Error)
	})
}

func (r *gormOfferRepository) SetAccepted(ctx context.Context, id string, accepted bool) error {
	res := r.db.WithContext(ctx).Model(&models.Offer{}).Where("id = ?", id).Update("accepted", accepted)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormOfferRepository) Accept(ctx context.Context, offerID, listingID string) (*models.Offer, error) {
	var accepted models.Offer

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定发布行，防止并发接受
		var listing models.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&listing, "id = ?", listingID).Error; err != nil {
			return translate(err)
		}
		if listing.Status != models.ListingStatusActive {
			return ErrListingNotActive
		}

		if err := tx.First(&accepted, "id = ? AND listing_id = ?", offerID, listingID).Error; err != nil {
			return translate(err)
		}

		var count int64
		if err := tx.Model(&models.Offer{}).
			Where("listing_id = ? AND accepted = ?", listingID, true).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 || !lifecycle.CanAccept(&listing, &accepted) {
			return ErrAlreadyAccepted
		}

		offers := &gormOfferRepository{db: tx}
		if err := offers.SetAccepted(ctx, accepted.ID, true); err != nil {
			return fmt.Errorf("mark offer accepted: %w", err)
		}
		listings := &gormListingRepository{db: tx}
		if err := listings.UpdateStatus(ctx, listing.ID, models.ListingStatusSold); err != nil {
			return fmt.Errorf("mark listing sold: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	accepted.Accepted = true
	return &accepted, nil
}
