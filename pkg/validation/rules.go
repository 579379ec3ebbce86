// Package validation holds the pure, step-scoped predicates that gate forward
// progression through the funnel.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/funnel/pkg/domain"
)

// DefaultMinFeedbackLength is the minimum number of characters of feedback.
const DefaultMinFeedbackLength = 40

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{5,20}$`)
)

// Rules evaluates step predicates. The zero value uses the defaults.
type Rules struct {
	MinFeedbackLength int
}

// Default returns the production rule set.
func Default() Rules {
	return Rules{MinFeedbackLength: DefaultMinFeedbackLength}
}

func (r Rules) minFeedback() int {
	if r.MinFeedbackLength <= 0 {
		return DefaultMinFeedbackLength
	}
	return r.MinFeedbackLength
}

// Check validates the data owned by step. It returns nil when the step is
// complete. Step 4 has nothing to validate.
func (r Rules) Check(step domain.Step, form domain.FormData, campaign *domain.CampaignView) domain.FieldErrors {
	var errs domain.FieldErrors
	switch step {
	case domain.StepSelectTarget:
		errs = r.SelectTarget(form, campaign)
	case domain.StepContactInfo:
		errs = r.ContactInfo(form)
	case domain.StepFeedback:
		errs = r.Feedback(form)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SelectTarget validates step 1.
func (r Rules) SelectTarget(form domain.FormData, campaign *domain.CampaignView) domain.FieldErrors {
	errs := domain.FieldErrors{}

	switch {
	case form.Target == "":
		errs["target"] = "Choose the product you bought or the seller."
	case form.IsSeller():
	default:
		if _, ok := campaign.Product(form.Target); !ok {
			errs["target"] = "Choose one of the listed products."
		}
	}

	switch {
	case form.Marketplace == "":
		errs["marketplace"] = "Choose the marketplace you ordered from."
	case !campaign.AllowsMarketplace(form.Marketplace):
		errs["marketplace"] = "This marketplace is not part of the campaign."
	}

	if strings.TrimSpace(form.OrderID) == "" {
		errs["order_id"] = "Enter your order number."
	}

	if form.Rating < 1 || form.Rating > 5 {
		errs["rating"] = "Pick a rating from 1 to 5 stars."
	}

	if form.UsedSevenDays == nil {
		errs["used_seven_days"] = "Tell us whether you have used the product for at least 7 days."
	}
	return errs
}

// ContactInfo validates step 2. Email is mandatory here.
func (r Rules) ContactInfo(form domain.FormData) domain.FieldErrors {
	errs := domain.FieldErrors{}

	if strings.TrimSpace(form.Name) == "" {
		errs["name"] = "Enter your name."
	}

	switch email := strings.TrimSpace(form.Email); {
	case email == "":
		errs["email"] = "Enter your email address."
	case !ValidEmail(email):
		errs["email"] = "Enter a valid email address."
	}

	if phone := strings.TrimSpace(form.Phone); phone != "" && !ValidPhone(phone) {
		errs["phone"] = "Enter a valid phone number."
	}
	return errs
}

// Feedback validates step 3.
func (r Rules) Feedback(form domain.FormData) domain.FieldErrors {
	if FeedbackLength(form.Feedback) < r.minFeedback() {
		return domain.FieldErrors{
			"feedback": "Tell us a bit more about your experience.",
		}
	}
	return nil
}

// FeedbackReady reports whether feedback meets the minimum length. The same
// threshold enables the copy & share action.
func (r Rules) FeedbackReady(feedback string) bool {
	return FeedbackLength(feedback) >= r.minFeedback()
}

// MinFeedback returns the effective minimum feedback length.
func (r Rules) MinFeedback() int {
	return r.minFeedback()
}

// FeedbackLength counts characters, not bytes or words, ignoring
// surrounding whitespace.
func FeedbackLength(feedback string) int {
	return utf8.RuneCountInString(strings.TrimSpace(feedback))
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s matches the permissive phone pattern.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}
