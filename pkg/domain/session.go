package domain

import "time"

// Phase is the coarse lifecycle position of a session.
type Phase string

const (
	PhaseLoading Phase = "loading" // Campaign data not yet resolved
	PhaseActive  Phase = "active"  // Customer is on one of the four steps
	PhaseError   Phase = "error"   // Resolution failed; terminal
)

// Session is the live aggregate for one customer's pass through the funnel.
type Session struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id"`
	IsDemo     bool   `json:"is_demo"`

	Phase       Phase  `json:"phase"`
	CurrentStep Step   `json:"current_step"`
	Location    string `json:"location"`

	Form FormData `json:"form"`

	Campaign *CampaignView `json:"campaign,omitempty"`

	// ResolutionError is set once campaign data cannot be resolved.
	ResolutionError string `json:"resolution_error,omitempty"`

	// SubmissionError holds the last retryable submission failure.
	SubmissionError string `json:"submission_error,omitempty"`
	Submitting      bool   `json:"submitting,omitempty"`
	Submitted       bool   `json:"submitted,omitempty"`

	Receipt *Receipt `json:"receipt,omitempty"`

	// History records every step entered, in order.
	History []Step `json:"history,omitempty"`

	// Sealed carries the encrypted session when a store encrypts at rest.
	// Every other content field is empty in that case.
	Sealed []byte `json:"sealed,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session in the loading phase, positioned at step 1.
func NewSession(id, campaignID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		CampaignID:  campaignID,
		IsDemo:      IsDemoCampaign(campaignID),
		Phase:       PhaseLoading,
		CurrentStep: FirstStep,
		Location:    Location(campaignID, FirstStep),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Form = s.Form.Clone()
	if s.Campaign != nil {
		c := *s.Campaign
		c.ProductIDs = append([]string(nil), s.Campaign.ProductIDs...)
		c.Products = append([]ProductSummary(nil), s.Campaign.Products...)
		c.Marketplaces = append([]string(nil), s.Campaign.Marketplaces...)
		out.Campaign = &c
	}
	if s.Receipt != nil {
		r := *s.Receipt
		out.Receipt = &r
	}
	out.History = append([]Step(nil), s.History...)
	out.Sealed = append([]byte(nil), s.Sealed...)
	return &out
}

// MoveTo sets the step and the location together so the two never diverge.
func (s *Session) MoveTo(step Step) {
	step = step.Clamp()
	s.CurrentStep = step
	s.Location = Location(s.CampaignID, step)
	s.History = append(s.History, step)
	s.UpdatedAt = time.Now().UTC()
}

// Ready reports whether the session accepts step input.
func (s *Session) Ready() bool {
	return s.Phase == PhaseActive
}
