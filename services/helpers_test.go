package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"vehicleoffer_go/config"
	"vehicleoffer_go/models"
	"vehicleoffer_go/repository"
	"vehicleoffer_go/storage"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc    *Services
	store  *repository.Store
	clock  *testClock
	upload string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
	mem := repository.NewMemoryStore()
	mem.SetClock(clock.Now)
	store := mem.Store()
	dir := t.TempDir()

	svc := New(Dependencies{
		Store:  store,
		Images: storage.NewLocalStore(dir, "/uploads"),
		JWT: config.NewJWTService(&config.JWTConfig{
			SecretKey:      "test-secret",
			ExpirationTime: time.Hour,
			Issuer:         "vehicleoffer",
		}),
		Market: &config.MarketConfig{
			ReadRetryAttempts: 3,
			ReadRetryBase:     time.Millisecond,
			MaxImages:         10,
			MaxImageSize:      1 << 20,
			OfferRateLimit:    10,
			ActiveCacheTTL:    time.Second,
			CountdownInterval: time.Second,
		},
	})
	svc.Listings.SetClock(clock.Now)
	svc.Offers.SetClock(clock.Now)

	return &fixture{svc: svc, store: store, clock: clock, upload: dir}
}

func (f *fixture) signUp(t *testing.T, name, role string) *Session {
	t.Helper()
	res, err := f.svc.Auth.SignUp(context.Background(), &SignUpRequest{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("sign up %s: %v", name, err)
	}
	return &Session{UserID: res.Profile.ID, Email: res.Profile.Email, Name: res.Profile.Name, Role: res.Profile.Role}
}

func (f *fixture) createListing(t *testing.T, seller *Session) *models.Listing {
	t.Helper()
	listing, err := f.svc.Listings.Create(context.Background(), seller, &CreateListingRequest{
		Title:                  "Toyota Aqua 2015",
		Description:            "Hybrid, single owner",
		AskingPrice:            1000000,
		MinimumAcceptablePrice: 900000,
		Location:               "Colombo",
		ImageURLs:              []string{"/uploads/a.jpg"},
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return listing
}

func (f *fixture) offer(t *testing.T, listingID string, amount float64) *models.Offer {
	t.Helper()
	offer, err := f.svc.Offers.Submit(context.Background(), nil, listingID, &SubmitOfferRequest{
		BuyerName:   "Nimal",
		BuyerPhone:  "+94 77 123 4567",
		OfferAmount: amount,
	})
	if err != nil {
		t.Fatalf("submit offer %v: %v", amount, err)
	}
	return offer
}
