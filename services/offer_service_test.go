package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vehicleoffer_go/models"
	"vehicleoffer_go/repository"
)

func TestSubmitOfferValidation(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	listing := f.createListing(t, seller)

	for _, amount := range []float64{0, -5, math.NaN(), 1000000, 1200000} {
		_, err := f.svc.Offers.Submit(context.Background(), nil, listing.ID, &SubmitOfferRequest{
			BuyerName: "Nimal", BuyerPhone: "0771234567", OfferAmount: amount,
		})
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Errors["offer_amount"] == "" {
			t.Fatalf("amount %v: expected validation error, got %v", amount, err)
		}
	}

	// below the minimum is still accepted
	offer := f.offer(t, listing.ID, 1)
	if offer.BuyerID != nil {
		t.Fatal("anonymous offer should have no buyer id")
	}
}

func TestSubmitOfferAuthenticatedBuyer(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	buyer := f.signUp(t, "buyer", models.RoleBuyer)
	listing := f.createListing(t, seller)

	offer, err := f.svc.Offers.Submit(context.Background(), buyer, listing.ID, &SubmitOfferRequest{
		BuyerName: "Buyer", BuyerPhone: "0771234567", OfferAmount: 500000,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if offer.BuyerID == nil || *offer.BuyerID != buyer.UserID {
		t.Fatalf("buyer id = %v", offer.BuyerID)
	}

	_, err = f.svc.Offers.Submit(context.Background(), seller, listing.ID, &SubmitOfferRequest{
		BuyerName: "Self", BuyerPhone: "0771234567", OfferAmount: 500000,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("seller offering on own listing: expected forbidden, got %v", err)
	}
}

func TestSubmitOfferAfterWindowCloses(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	listing := f.createListing(t, seller)

	f.clock.Advance(24*time.Hour - time.Second)
	f.offer(t, listing.ID, 500000)

	f.clock.Advance(time.Second)
	_, err := f.svc.Offers.Submit(context.Background(), nil, listing.ID, &SubmitOfferRequest{
		BuyerName: "Late", BuyerPhone: "0771234567", OfferAmount: 500000,
	})
	if !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("expected window closed, got %v", err)
	}
}

func TestOfferRefusedAfterSale(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	listing := f.createListing(t, seller)
	first := f.offer(t, listing.ID, 950000)
	f.offer(t, listing.ID, 920000)

	res, err := f.svc.Offers.Accept(context.Background(), seller, listing.ID, first.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !res.Offer.Accepted || res.Listing.Status != models.ListingStatusSold {
		t.Fatalf("unexpected result: %+v %+v", res.Offer, res.Listing)
	}

	_, err = f.svc.Offers.Submit(context.Background(), nil, listing.ID, &SubmitOfferRequest{
		BuyerName: "Late", BuyerPhone: "0771234567", OfferAmount: 990000,
	})
	if !errors.Is(err, ErrListingNotActive) {
		t.Fatalf("expected listing not active, got %v", err)
	}

	offers, err := f.svc.Offers.ListForListing(context.Background(), seller, listing.ID)
	if err != nil || len(offers) != 2 {
		t.Fatalf("offers = %d, %v", len(offers), err)
	}
	accepted := 0
	for _, o := range offers {
		if o.Accepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted = %d, want 1", accepted)
	}
}

// acceptBeforeCreate 在写入新出价前先完成一次接受，模拟读取发布后发生的成交
type acceptBeforeCreate struct {
	repository.OfferRepository
	offerID, listingID string
}

func (a *acceptBeforeCreate) Create(ctx context.Context, offer *models.Offer) error {
	if _, err := a.OfferRepository.Accept(ctx, a.offerID, a.listingID); err != nil {
		return err
	}
	return a.OfferRepository.Create(ctx, offer)
}

func TestSubmitOfferLosesToConcurrentSale(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	listing := f.createListing(t, seller)
	first := f.offer(t, listing.ID, 950000)

	f.store.Offers = &acceptBeforeCreate{OfferRepository: f.store.Offers, offerID: first.ID, listingID: listing.ID}

	_, err := f.svc.Offers.Submit(context.Background(), nil, listing.ID, &SubmitOfferRequest{
		BuyerName: "Late", BuyerPhone: "0771234567", OfferAmount: 960000,
	})
	if !errors.Is(err, ErrListingNotActive) {
		t.Fatalf("expected listing not active, got %v", err)
	}

	offers, _ := f.store.Offers.ListByListings(context.Background(), listing.ID)
	if len(offers) != 1 || !offers[0].Accepted {
		t.Fatalf("sold listing should hold only the accepted offer, got %+v", offers)
	}
}

func TestAcceptOfferAuthorization(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	rival := f.signUp(t, "rival", models.RoleSeller)
	buyer := f.signUp(t, "buyer", models.RoleBuyer)
	listing := f.createListing(t, seller)
	offer := f.offer(t, listing.ID, 900000)
	ctx := context.Background()

	if _, err := f.svc.Offers.Accept(ctx, nil, listing.ID, offer.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous: %v", err)
	}
	if _, err := f.svc.Offers.Accept(ctx, buyer, listing.ID, offer.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("buyer: %v", err)
	}
	if _, err := f.svc.Offers.Accept(ctx, rival, listing.ID, offer.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("rival seller: %v", err)
	}
	if _, err := f.svc.Offers.ListForListing(ctx, rival, listing.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("rival list: %v", err)
	}
	if _, err := f.svc.Offers.Accept(ctx, seller, listing.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing offer: %v", err)
	}
}

func TestAcceptAfterWindowWhileStillActive(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	listing := f.createListing(t, seller)
	offer := f.offer(t, listing.ID, 900000)

	f.clock.Advance(48 * time.Hour)
	if _, err := f.svc.Offers.Accept(context.Background(), seller, listing.ID, offer.ID); err != nil {
		t.Fatalf("accept after window: %v", err)
	}
}

func TestConcurrentAcceptSingleWinner(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	listing := f.createListing(t, seller)
	offers := []*models.Offer{
		f.offer(t, listing.ID, 910000),
		f.offer(t, listing.ID, 920000),
		f.offer(t, listing.ID, 930000),
	}

	var wg sync.WaitGroup
	var wins int32
	for _, o := range offers {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.svc.Offers.Accept(context.Background(), seller, listing.ID, id); err == nil {
				atomic.AddInt32(&wins, 1)
			} else if !errors.Is(err, ErrListingNotActive) && !errors.Is(err, ErrOfferAlreadyAccepted) {
				t.Errorf("unexpected error: %v", err)
			}
		}(o.ID)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("wins = %d, want 1", wins)
	}
}

func TestOfferEventsDeliveredLocally(t *testing.T) {
	f := newFixture(t)
	seller := f.signUp(t, "seller", models.RoleSeller)
	listing := f.createListing(t, seller)

	var mu sync.Mutex
	var got []string
	f.svc.Events.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if e.ListingID == listing.ID {
			got = append(got, e.Type)
		}
	})

	offer := f.offer(t, listing.ID, 900000)
	if _, err := f.svc.Offers.Accept(context.Background(), seller, listing.ID, offer.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != EventOfferCreated || got[1] != EventListingSold {
		t.Fatalf("events = %v", got)
	}
}
