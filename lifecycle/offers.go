package lifecycle

import (
	"fmt"
	"math"
	"sort"

	"vehicleoffer_go/models"
)

// 拒绝原因
const (
	ReasonInvalidAmount    = "invalid_amount"
	ReasonAboveAsking      = "above_asking"
	ReasonListingNotActive = "listing_not_active"
)

// Rejection 出价被拒绝
type Rejection struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (r *Rejection) Error() string {
	return r.Message
}

// BestOffer 最高出价，无出价时 ok=false
func BestOffer(offers []models.Offer) (float64, bool) {
	if len(offers) == 0 {
		return 0, false
	}
	best := offers[0].OfferAmount
	for _, o := range offers[1:] {
		if o.OfferAmount > best {
			best = o.OfferAmount
		}
	}
	return best, true
}

// WorstOffer 最低出价，无出价时 ok=false
func WorstOffer(offers []models.Offer) (float64, bool) {
	if len(offers) == 0 {
		return 0, false
	}
	worst := offers[0].OfferAmount
	for _, o := range offers[1:] {
		if o.OfferAmount < worst {
			worst = o.OfferAmount
		}
	}
	return worst, true
}

// ValidateOffer 校验出价金额
// 不与 minimum_acceptable_price 比较，是否接受由卖家手动决定
func ValidateOffer(amount float64, listing *models.Listing) error {
	if listing.Status != models.ListingStatusActive {
		return &Rejection{
			Reason:  ReasonListingNotActive,
			Message: fmt.Sprintf("listing is %s and no longer accepts offers", listing.Status),
		}
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return &Rejection{
			Reason:  ReasonInvalidAmount,
			Message: "Offer must be a valid amount greater than zero",
		}
	}
	if amount >= MaxAmount {
		return &Rejection{
			Reason:  ReasonInvalidAmount,
			Message: fmt.Sprintf("Offer must be below %s", FormatCurrency(MaxAmount)),
		}
	}
	if amount >= listing.AskingPrice {
		return &Rejection{
			Reason:  ReasonAboveAsking,
			Message: fmt.Sprintf("Offer must be lower than the asking price of %s", FormatCurrency(listing.AskingPrice)),
		}
	}
	return nil
}

// CanAccept 卖家是否可以接受该出价
func CanAccept(listing *models.Listing, offer *models.Offer) bool {
	return listing.Status == models.ListingStatusActive &&
		offer.ListingID == listing.ID &&
		!offer.Accepted
}

// GroupOffersByListing 按 listing_id 分组，组内保持原有顺序
func GroupOffersByListing(offers []models.Offer) map[string][]models.Offer {
	grouped := make(map[string][]models.Offer)
	for _, o := range offers {
		grouped[o.ListingID] = append(grouped[o.ListingID], o)
	}
	return grouped
}

// SortOffersByAmountDesc 按金额降序排序（稳定排序）
func SortOffersByAmountDesc(offers []models.Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].OfferAmount > offers[j].OfferAmount
	})
}
