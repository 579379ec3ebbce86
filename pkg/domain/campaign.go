package domain

// DemoCampaignID is the reserved campaign identity that runs the funnel
// entirely from static data.
const DemoCampaignID = "demo-campaign"

// IsDemoCampaign reports whether id selects demo mode.
func IsDemoCampaign(id string) bool {
	return id == DemoCampaignID
}

// Promotion is the reward offered to the customer for completing the funnel.
type Promotion struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	ImageURL    string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"` // e.g. "gift_card", "discount", "extended_warranty"
}

// ProductSummary is the product data shown on the target selection step.
type ProductSummary struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	ASIN     string `json:"asin" yaml:"asin"`
}

// CampaignView is the read-only campaign data resolved once per session.
type CampaignView struct {
	ID           string           `json:"id" yaml:"id"`
	Active       bool             `json:"active" yaml:"active"`
	Promotion    Promotion        `json:"promotion" yaml:"promotion"`
	ProductIDs   []string         `json:"product_ids,omitempty" yaml:"product_ids,omitempty"`
	Products     []ProductSummary `json:"products,omitempty" yaml:"products,omitempty"`
	Marketplaces []string         `json:"marketplaces" yaml:"marketplaces"`

	// PixelID identifies the vendor's tracking pixel, if the vendor has one.
	PixelID string `json:"pixel_id,omitempty" yaml:"pixel_id,omitempty"`
}

// Product looks up a resolved product by id.
func (c *CampaignView) Product(id string) (ProductSummary, bool) {
	if c == nil {
		return ProductSummary{}, false
	}
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return ProductSummary{}, false
}

// AllowsMarketplace reports whether code is one of the campaign's marketplaces.
func (c *CampaignView) AllowsMarketplace(code string) bool {
	if c == nil || code == "" {
		return false
	}
	for _, m := range c.Marketplaces {
		if m == code {
			return true
		}
	}
	return false
}

// Viewer is the read-only identity of whoever drives the session.
// An anonymous viewer has an empty Token.
type Viewer struct {
	ActorID string
	Token   string
	Roles   []string
}

// Anonymous returns the unauthenticated viewer.
func Anonymous() Viewer {
	return Viewer{}
}

// Authenticated reports whether the viewer carries credentials.
func (v Viewer) Authenticated() bool {
	return v.Token != ""
}
