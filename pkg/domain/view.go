package domain

// ViewKind names the screen that should be rendered for a session.
type ViewKind string

const (
	ViewLoading      ViewKind = "loading"
	ViewSelectTarget ViewKind = "select_target"
	ViewContactInfo  ViewKind = "contact_info"
	ViewFeedback     ViewKind = "feedback"
	ViewDisclosure   ViewKind = "disclosure"
	ViewError        ViewKind = "error"
)

// ShareKind tells which external page the share action opens.
type ShareKind string

const (
	ShareNone           ShareKind = ""
	ShareProductReview  ShareKind = "product_review"
	ShareSellerFeedback ShareKind = "seller_feedback"
)

// ShareDecision is the outcome of the redirect policy.
// Offered means the "copy & share" affordance is shown at all; Enabled
// means it may be clicked (feedback is long enough).
type ShareDecision struct {
	Offered bool      `json:"offered"`
	Enabled bool      `json:"enabled"`
	Kind    ShareKind `json:"kind,omitempty"`
	Domain  string    `json:"domain,omitempty"`
	URL     string    `json:"url,omitempty"`
}

// View is the data contract for whatever screen is active. Exactly one of
// the step fields is set, matching Kind; inactive steps are never built.
type View struct {
	Kind     ViewKind `json:"kind"`
	Step     Step     `json:"step,omitempty"`
	Location string   `json:"location"`
	IsDemo   bool     `json:"is_demo,omitempty"`

	SelectTarget *SelectTargetView `json:"select_target,omitempty"`
	ContactInfo  *ContactInfoView  `json:"contact_info,omitempty"`
	Feedback     *FeedbackView     `json:"feedback,omitempty"`
	Disclosure   *DisclosureView   `json:"disclosure,omitempty"`
	Error        *ErrorView        `json:"error,omitempty"`
}

// SelectTargetView feeds step 1.
type SelectTargetView struct {
	Promotion     Promotion        `json:"promotion"`
	Products      []ProductSummary `json:"products"`
	Marketplaces  []string         `json:"marketplaces"`
	Target        string           `json:"target,omitempty"`
	Marketplace   string           `json:"marketplace,omitempty"`
	OrderID       string           `json:"order_id,omitempty"`
	Rating        int              `json:"rating,omitempty"`
	UsedSevenDays *bool            `json:"used_seven_days,omitempty"`
}

// ContactInfoView feeds step 2.
type ContactInfoView struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// FeedbackView feeds step 3.
type FeedbackView struct {
	Feedback        string        `json:"feedback,omitempty"`
	Length          int           `json:"length"`
	MinLength       int           `json:"min_length"`
	Share           ShareDecision `json:"share"`
	Submitting      bool          `json:"submitting,omitempty"`
	SubmissionError string        `json:"submission_error,omitempty"`
	Retryable       bool          `json:"retryable,omitempty"`
}

// DisclosureView feeds step 4.
type DisclosureView struct {
	Promotion Promotion     `json:"promotion"`
	Receipt   *Receipt      `json:"receipt,omitempty"`
	Share     ShareDecision `json:"share"`
	PixelID   string        `json:"pixel_id,omitempty"`
}

// ErrorView is the terminal error screen.
type ErrorView struct {
	Message string `json:"message"`
}
