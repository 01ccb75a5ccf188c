package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"vehicleoffer_go/lifecycle"
	"vehicleoffer_go/models"
)

// MemoryStore 进程内数据存储，用于本地开发（DB_DRIVER=memory）和测试
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	listings map[string]models.Listing
	offers   map[string]models.Offer
	now      func() time.Time
}

// NewMemoryStore 创建进程内存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]models.Profile),
		listings: make(map[string]models.Listing),
		offers:   make(map[string]models.Offer),
		now:      time.Now,
	}
}

// Store 以数据访问接口形式暴露
func (m *MemoryStore) Store() *Store {
	return &Store{
		Profiles: memoryProfiles{m},
		Listings: memoryListings{m},
		Offers:   memoryOffers{m},
	}
}

// SetClock 替换时间来源（测试使用）
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

type memoryProfiles struct{ m *MemoryStore }

func (r memoryProfiles) Create(_ context.Context, profile *models.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, p := range r.m.profiles {
		if strings.EqualFold(p.Email, profile.Email) {
			return ErrConflict
		}
	}
	if profile.ID == "" {
		profile.ID = models.NewID()
	}
	now := r.m.now()
	profile.CreatedAt, profile.UpdatedAt = now, now
	r.m.profiles[profile.ID] = *profile
	return nil
}

func (r memoryProfiles) Get(_ context.Context, id string) (*models.Profile, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	p, ok := r.m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r memoryProfiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, p := range r.m.profiles {
		if strings.EqualFold(p.Email, email) {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

type memoryListings struct{ m *MemoryStore }

func (r memoryListings) sorted(keep func(models.Listing) bool) []models.Listing {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := make([]models.Listing, 0)
	for _, l := range r.m.listings {
		if keep(l) {
			l.ImageURLs = append([]string(nil), l.ImageURLs...)
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r memoryListings) ListActive(_ context.Context) ([]models.Listing, error) {
	return r.sorted(func(l models.Listing) bool { return l.Status == models.ListingStatusActive }), nil
}

func (r memoryListings) ListBySeller(_ context.Context, sellerID string) ([]models.Listing, error) {
	return r.sorted(func(l models.Listing) bool { return l.SellerID == sellerID }), nil
}

func (r memoryListings) Get(_ context.Context, id string) (*models.Listing, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	l, ok := r.m.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	l.ImageURLs = append([]string(nil), l.ImageURLs...)
	return &l, nil
}

func (r memoryListings) Create(_ context.Context, listing *models.Listing) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if listing.ID == "" {
		listing.ID = models.NewID()
	}
	if _, exists := r.m.listings[listing.ID]; exists {
		return ErrConflict
	}
	if listing.Status == "" {
		listing.Status = models.ListingStatusActive
	}
	now := r.m.now()
	listing.CreatedAt, listing.UpdatedAt = now, now
	stored := *listing
	stored.ImageURLs = append([]string(nil), listing.ImageURLs...)
	r.m.listings[listing.ID] = stored
	return nil
}

func (r memoryListings) UpdateStatus(_ context.Context, id, status string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	return r.m.setListingStatus(id, status)
}

// setListingStatus 调用方需持有写锁
func (m *MemoryStore) setListingStatus(id, status string) error {
	l, ok := m.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	l.UpdatedAt = m.now()
	m.listings[id] = l
	return nil
}

type memoryOffers struct{ m *MemoryStore }

func (r memoryOffers) ListByListings(_ context.Context, listingIDs ...string) ([]models.Offer, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	wanted := make(map[string]struct{}, len(listingIDs))
	for _, id := range listingIDs {
		wanted[id] = struct{}{}
	}

	out := make([]models.Offer, 0)
	for _, o := range r.m.offers {
		if _, ok := wanted[o.ListingID]; ok {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OfferAmount != out[j].OfferAmount {
			return out[i].OfferAmount > out[j].OfferAmount
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r memoryOffers) Create(_ context.Context, offer *models.Offer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	listing, ok := r.m.listings[offer.ListingID]
	if !ok {
		return ErrNotFound
	}
	if listing.Status != models.ListingStatusActive {
		return ErrListingNotActive
	}
	if offer.ID == "" {
		offer.ID = models.NewID()
	}
	offer.CreatedAt = r.m.now()
	r.m.offers[offer.ID] = *offer
	return nil
}

func (r memoryOffers) SetAccepted(_ context.Context, id string, accepted bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	return r.m.setOfferAccepted(id, accepted)
}

// setOfferAccepted 调用方需持有写锁
func (m *MemoryStore) setOfferAccepted(id string, accepted bool) error {
	o, ok := m.offers[id]
	if !ok {
		return ErrNotFound
	}
	o.Accepted = accepted
	m.offers[id] = o
	return nil
}

func (r memoryOffers) Accept(_ context.Context, offerID, listingID string) (*models.Offer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	listing, ok := r.m.listings[listingID]
	if !ok {
		return nil, ErrNotFound
	}
	if listing.Status != models.ListingStatusActive {
		return nil, ErrListingNotActive
	}
	offer, ok := r.m.offers[offerID]
	if !ok || offer.ListingID != listingID {
		return nil, ErrNotFound
	}
	for _, o := range r.m.offers {
		if o.ListingID == listingID && o.Accepted {
			return nil, ErrAlreadyAccepted
		}
	}
	if !lifecycle.CanAccept(&listing, &offer) {
		return nil, ErrAlreadyAccepted
	}

	// 两次写入在同一把锁内完成，不会出现部分生效
	if err := r.m.setOfferAccepted(offerID, true); err != nil {
		return nil, err
	}
	if err := r.m.setListingStatus(listingID, models.ListingStatusSold); err != nil {
		return nil, err
	}
	offer.Accepted = true
	return &offer, nil
}
