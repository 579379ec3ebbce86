package resolver

import (
	"time"

	"github.com/aretw0/funnel/pkg/domain"
)

// DemoCampaign is the static campaign served to the demo session.
func DemoCampaign() domain.CampaignView {
	return domain.CampaignView{
		ID:     domain.DemoCampaignID,
		Active: true,
		Promotion: domain.Promotion{
			ID:    "demo-promotion",
			Title: "Free 1-year extended warranty",
			Description: "Thank you for shopping with us! Tell us how it went and we will " +
				"extend your warranty by **12 months**, free of charge.",
			Type: "extended_warranty",
		},
		ProductIDs:   []string{"demo-product-1", "demo-product-2"},
		Marketplaces: []string{"us", "ca", "gb", "de"},
	}
}

// DemoProducts is the static product list served to the demo session.
func DemoProducts() []domain.ProductSummary {
	return []domain.ProductSummary{
		{ID: "demo-product-1", Title: "Stainless Steel Electric Kettle", ASIN: "B0DEMO0001"},
		{ID: "demo-product-2", Title: "Bamboo Cutting Board Set", ASIN: "B0DEMO0002"},
	}
}

// DemoReceipt acknowledges a demo review without recording anything.
func DemoReceipt() domain.Receipt {
	return domain.Receipt{ReviewID: "demo-review", RecordedAt: time.Now().UTC()}
}
