package domain

import "strings"

// SellerTarget is the target value chosen when the customer reviews the
// seller rather than a specific product.
const SellerTarget = "seller"

// FormData accumulates everything the customer has entered so far.
type FormData struct {
	// Target is a product id or SellerTarget.
	Target string `json:"target,omitempty"`
	// ASIN is resolved from the selected product; empty for seller reviews.
	ASIN          string `json:"asin,omitempty"`
	Marketplace   string `json:"marketplace,omitempty"`
	OrderID       string `json:"order_id,omitempty"`
	Rating        int    `json:"rating,omitempty"`
	UsedSevenDays *bool  `json:"used_seven_days,omitempty"`

	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	Feedback string `json:"feedback,omitempty"`
}

// IsSeller reports whether the seller was chosen as target.
func (f FormData) IsSeller() bool {
	return f.Target == SellerTarget
}

// Clone returns a copy that shares no pointers with f.
func (f FormData) Clone() FormData {
	out := f
	if f.UsedSevenDays != nil {
		v := *f.UsedSevenDays
		out.UsedSevenDays = &v
	}
	return out
}

// Equal compares two form records field by field.
func (f FormData) Equal(o FormData) bool {
	if (f.UsedSevenDays == nil) != (o.UsedSevenDays == nil) {
		return false
	}
	if f.UsedSevenDays != nil && *f.UsedSevenDays != *o.UsedSevenDays {
		return false
	}
	a, b := f, o
	a.UsedSevenDays, b.UsedSevenDays = nil, nil
	return a == b
}

// FormPatch carries a partial update from a step view. Nil fields are left
// untouched.
type FormPatch struct {
	Target        *string `json:"target,omitempty" mapstructure:"target"`
	Marketplace   *string `json:"marketplace,omitempty" mapstructure:"marketplace"`
	OrderID       *string `json:"order_id,omitempty" mapstructure:"order_id"`
	Rating        *int    `json:"rating,omitempty" mapstructure:"rating"`
	UsedSevenDays *bool   `json:"used_seven_days,omitempty" mapstructure:"used_seven_days"`
	Name          *string `json:"name,omitempty" mapstructure:"name"`
	Email         *string `json:"email,omitempty" mapstructure:"email"`
	Phone         *string `json:"phone,omitempty" mapstructure:"phone"`
	Feedback      *string `json:"feedback,omitempty" mapstructure:"feedback"`
}

// Empty reports whether the patch changes nothing.
func (p FormPatch) Empty() bool {
	return p == FormPatch{}
}

// Apply merges the patch into f and returns the result. Selecting the seller
// clears the product ASIN; selecting a product resolves its ASIN from
// campaign (an unknown product leaves the ASIN empty and fails validation).
func (p FormPatch) Apply(f FormData, campaign *CampaignView) FormData {
	out := f.Clone()

	if p.Target != nil {
		target := strings.TrimSpace(*p.Target)
		out.Target = target
		out.ASIN = ""
		if target != SellerTarget {
			if product, ok := campaign.Product(target); ok {
				out.ASIN = product.ASIN
			}
		}
	}
	if p.Marketplace != nil {
		out.Marketplace = strings.ToLower(strings.TrimSpace(*p.Marketplace))
	}
	if p.OrderID != nil {
		out.OrderID = strings.TrimSpace(*p.OrderID)
	}
	if p.Rating != nil {
		out.Rating = *p.Rating
	}
	if p.UsedSevenDays != nil {
		v := *p.UsedSevenDays
		out.UsedSevenDays = &v
	}
	if p.Name != nil {
		out.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		out.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		out.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Feedback != nil {
		out.Feedback = *p.Feedback
	}
	return out
}
