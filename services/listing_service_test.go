package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"vehicleoffer_go/config"
	"vehicleoffer_go/lifecycle"
	"vehicleoffer_go/models"
)

func TestCreateListingRequiresSeller(t *testing.T) {
	f := newFixture(t)
	buyer := f.signUp(t, "buyer", models.RoleBuyer)
	req := &CreateListingRequest{Title: "Car", Description: "d", AskingPrice: 10, MinimumAcceptablePrice: 5, Location: "Kandy", ImageURLs: []string{"a"}}

	if _, err := f.svc.Listings.Create(context.Background(), nil, req); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous: expected unauthorized, got %v", err)
	}
	if _, err := f.svc.Listings.Create(context.Background(), buyer, req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("buyer: expected forbidden, got %v", err)
	}
}

func TestCreateListingOpensWindowFromServerClock(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)

	listing := f.createListing(t, seller)
	if !listing.StartTime.Equal(f.clock.Now()) {
		t.Fatalf("start = %v, want %v", listing.StartTime, f.clock.Now())
	}
	if got := listing.EndTime.Sub(listing.StartTime); got != 24*time.Hour {
		t.Fatalf("window = %v, want 24h", got)
	}
	if listing.Status != models.ListingStatusActive || listing.SellerID != seller.UserID {
		t.Fatalf("unexpected listing: %+v", listing)
	}
}

func TestCreateListingWindowIgnoresEnvironment(t *testing.T) {
	t.Setenv("OFFER_WINDOW", "1h")

	f := newFixture(t)
	svc := New(Dependencies{
		Store:  f.store,
		JWT:    config.NewJWTService(&config.JWTConfig{SecretKey: "k", ExpirationTime: time.Hour}),
		Market: config.GetMarketConfig(),
	})
	svc.Listings.SetClock(f.clock.Now)
	seller := f.signUp(t, "seller", models.RoleSeller)

	listing, err := svc.Listings.Create(context.Background(), seller, &CreateListingRequest{
		Title: "Honda Vezel", Description: "d", AskingPrice: 8000000, MinimumAcceptablePrice: 7500000,
		Location: "Galle", ImageURLs: []string{"a"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := listing.EndTime.Sub(listing.StartTime); got != lifecycle.OfferWindow {
		t.Fatalf("window = %v, want %v", got, lifecycle.OfferWindow)
	}
}

func TestCreateListingValidation(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)

	cases := []struct {
		name  string
		req   CreateListingRequest
		field string
	}{
		{"minimum above asking", CreateListingRequest{AskingPrice: 100, MinimumAcceptablePrice: 150, ImageURLs: []string{"a"}}, "minimum_acceptable_price"},
		{"no images", CreateListingRequest{AskingPrice: 100, MinimumAcceptablePrice: 50}, "image_urls"},
		{"too many images", CreateListingRequest{AskingPrice: 100, MinimumAcceptablePrice: 50, ImageURLs: make([]string, 11)}, "image_urls"},
		{"zero asking", CreateListingRequest{MinimumAcceptablePrice: 50, ImageURLs: []string{"a"}}, "asking_price"},
		{"asking beyond storable", CreateListingRequest{AskingPrice: 1e19, MinimumAcceptablePrice: 50, ImageURLs: []string{"a"}}, "asking_price"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			req.Title, req.Description, req.Location = "Car", "d", "Galle"
			_, err := f.svc.Listings.Create(context.Background(), seller, &req)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Errors[tc.field] == "" {
				t.Fatalf("expected %s error, got %v", tc.field, err)
			}
		})
	}
}

func TestListActiveFiltersAndHidesPrivateFields(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	listing := f.createListing(t, seller)
	f.offer(t, listing.ID, 800000)
	f.offer(t, listing.ID, 950000)

	views, err := f.svc.Listings.ListActive(context.Background(), "colombo")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d listings, want 1", len(views))
	}
	v := views[0]
	if v.MinimumAcceptablePrice != 0 || len(v.Offers) != 0 {
		t.Fatal("public view leaks minimum price or offers")
	}
	if v.OfferCount != 2 || *v.BestOffer != 950000 || *v.WorstOffer != 800000 {
		t.Fatalf("unexpected offer summary: %+v", v)
	}
	if !v.WindowOpen || v.TimeRemainingText != "24h 0m" {
		t.Fatalf("unexpected window: %v %q", v.WindowOpen, v.TimeRemainingText)
	}

	none, err := f.svc.Listings.ListActive(context.Background(), "jaffna")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no match, got %d, %v", len(none), err)
	}
}

func TestGetListingOwnerView(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	other := f.signUp(t, "other", models.RoleSeller)
	listing := f.createListing(t, seller)
	f.offer(t, listing.ID, 700000)
	f.offer(t, listing.ID, 900000)

	owner, err := f.svc.Listings.Get(context.Background(), listing.ID, seller)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if owner.MinimumAcceptablePrice != 900000 || len(owner.Offers) != 2 {
		t.Fatalf("owner view incomplete: %+v", owner)
	}
	if owner.Offers[0].OfferAmount != 900000 {
		t.Fatalf("offers not sorted by amount desc: %+v", owner.Offers)
	}

	public, err := f.svc.Listings.Get(context.Background(), listing.ID, other)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if public.MinimumAcceptablePrice != 0 || public.Offers != nil {
		t.Fatal("non-owner sees private fields")
	}

	if _, err := f.svc.Listings.Get(context.Background(), "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetListingDerivesClosedAfterWindow(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	listing := f.createListing(t, seller)

	f.clock.Advance(24 * time.Hour)
	view, err := f.svc.Listings.Get(context.Background(), listing.ID, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.EffectiveStatus != models.ListingStatusClosed || view.WindowOpen {
		t.Fatalf("status = %s, open = %v", view.EffectiveStatus, view.WindowOpen)
	}
	if view.Status != models.ListingStatusActive {
		t.Fatal("persisted status should stay active")
	}
	if view.TimeRemainingText != "Offer Window Closed" {
		t.Fatalf("text = %q", view.TimeRemainingText)
	}
}

func TestDashboardPartitionsByStatus(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	sold := f.createListing(t, seller)
	f.clock.Advance(time.Minute)
	open := f.createListing(t, seller)
	offer := f.offer(t, sold.ID, 950000)

	if _, err := f.svc.Offers.Accept(context.Background(), seller, sold.ID, offer.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	dash, err := f.svc.Listings.Dashboard(context.Background(), seller)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(dash.Active) != 1 || dash.Active[0].ID != open.ID {
		t.Fatalf("unexpected active: %+v", dash.Active)
	}
	if len(dash.Inactive) != 1 || dash.Inactive[0].ID != sold.ID || len(dash.Inactive[0].Offers) != 1 {
		t.Fatalf("unexpected inactive: %+v", dash.Inactive)
	}

	buyer := f.signUp(t, "buyer", models.RoleBuyer)
	if _, err := f.svc.Listings.Dashboard(context.Background(), buyer); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestHotKeywordsWithoutRedis(t *testing.T) {
	f := newFixture(t)
	keywords, err := f.svc.Listings.HotKeywords(context.Background(), 5)
	if err != nil || len(keywords) != 0 {
		t.Fatalf("got %v, %v", keywords, err)
	}
}
