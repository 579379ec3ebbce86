// Package redirect decides whether a customer is invited to repeat their
// review on the marketplace, and where that invitation points.
package redirect

import (
	"net/url"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/validation"
)

// DefaultShareThreshold is the lowest rating that is invited to share.
const DefaultShareThreshold = 4

// Policy is the ratings-based branching rule.
type Policy struct {
	ShareThreshold int
	Rules          validation.Rules
	Catalog        Catalog
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{
		ShareThreshold: DefaultShareThreshold,
		Rules:          validation.Default(),
		Catalog:        DefaultCatalog(),
	}
}

// Input is what the policy looks at.
type Input struct {
	Rating      int
	Marketplace string
	Seller      bool
	ASIN        string
	Feedback    string
}

// InputFrom extracts the policy input from a form.
func InputFrom(form domain.FormData) Input {
	return Input{
		Rating:      form.Rating,
		Marketplace: form.Marketplace,
		Seller:      form.IsSeller(),
		ASIN:        form.ASIN,
		Feedback:    form.Feedback,
	}
}

func (p Policy) threshold() int {
	if p.ShareThreshold <= 0 {
		return DefaultShareThreshold
	}
	return p.ShareThreshold
}

// Decide applies the policy. It has no side effects: opening the URL and
// copying the feedback are the caller's job. A satisfied customer on a
// marketplace missing from the catalog is still offered the invitation, but
// with no destination it stays disabled.
func (p Policy) Decide(in Input) domain.ShareDecision {
	if in.Rating < p.threshold() || in.Rating > 5 {
		return domain.ShareDecision{}
	}

	decision := domain.ShareDecision{Offered: true}
	switch {
	case in.Seller:
		decision.Kind = domain.ShareSellerFeedback
	case in.ASIN != "":
		decision.Kind = domain.ShareProductReview
	default:
		// A product flow without an ASIN has nowhere to send the customer.
		return domain.ShareDecision{}
	}

	catalog := p.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	market, ok := catalog.Lookup(in.Marketplace)
	if !ok {
		return decision
	}

	decision.Enabled = p.Rules.FeedbackReady(in.Feedback)
	decision.Domain = market.Domain
	if in.Seller {
		decision.URL = market.OrderHistoryURL
	} else {
		decision.URL = market.ReviewURL(url.QueryEscape(in.ASIN))
	}
	return decision
}
