package domain

import "time"

// SellerSentinelASIN replaces the product ASIN when the review targets the
// seller.
const SellerSentinelASIN = "SELLER_FEEDBACK"

// ReviewPayload is what both submission surfaces receive.
type ReviewPayload struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	ASIN        string `json:"asin"`
	Rating      int    `json:"rating"`
	Feedback    string `json:"feedback"`
	Marketplace string `json:"marketplace"`
	OrderID     string `json:"order_id"`
	PromotionID string `json:"promotion_id"`
	CampaignID  string `json:"campaign_id"`
	IsSeller    bool   `json:"is_seller"`
	Phone       string `json:"phone,omitempty"`
	UsedDays    bool   `json:"used_seven_days"`
}

// Receipt acknowledges a recorded review.
type Receipt struct {
	ReviewID   string    `json:"review_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// BuildPayload maps the session's form onto a submission payload.
// It is a pure function: the same session always yields the same payload,
// whichever surface ends up accepting it.
func BuildPayload(s *Session) ReviewPayload {
	form := s.Form
	asin := form.ASIN
	if form.IsSeller() {
		asin = SellerSentinelASIN
	}

	var promotionID string
	if s.Campaign != nil {
		promotionID = s.Campaign.Promotion.ID
	}

	return ReviewPayload{
		Email:       form.Email,
		DisplayName: form.Name,
		ASIN:        asin,
		Rating:      form.Rating,
		Feedback:    form.Feedback,
		Marketplace: form.Marketplace,
		OrderID:     form.OrderID,
		PromotionID: promotionID,
		CampaignID:  s.CampaignID,
		IsSeller:    form.IsSeller(),
		Phone:       form.Phone,
		UsedDays:    form.UsedSevenDays != nil && *form.UsedSevenDays,
	}
}
