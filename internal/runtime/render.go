package runtime

import (
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/validation"
)

// Render builds the view for the session's active screen. Only the active
// step's view is constructed.
func (e *Engine) Render(s *domain.Session) domain.View {
	view := domain.View{
		Location: s.Location,
		IsDemo:   s.IsDemo,
	}

	switch s.Phase {
	case domain.PhaseLoading:
		view.Kind = domain.ViewLoading
		return view
	case domain.PhaseError:
		view.Kind = domain.ViewError
		view.Error = &domain.ErrorView{Message: s.ResolutionError}
		return view
	}

	view.Step = s.CurrentStep
	form := s.Form

	switch s.CurrentStep {
	case domain.StepSelectTarget:
		view.Kind = domain.ViewSelectTarget
		v := &domain.SelectTargetView{
			Target:        form.Target,
			Marketplace:   form.Marketplace,
			OrderID:       form.OrderID,
			Rating:        form.Rating,
			UsedSevenDays: form.UsedSevenDays,
		}
		if s.Campaign != nil {
			v.Promotion = s.Campaign.Promotion
			v.Products = s.Campaign.Products
			v.Marketplaces = s.Campaign.Marketplaces
		}
		view.SelectTarget = v

	case domain.StepContactInfo:
		view.Kind = domain.ViewContactInfo
		view.ContactInfo = &domain.ContactInfoView{
			Name:  form.Name,
			Email: form.Email,
			Phone: form.Phone,
		}

	case domain.StepFeedback:
		view.Kind = domain.ViewFeedback
		view.Feedback = &domain.FeedbackView{
			Feedback:        form.Feedback,
			Length:          validation.FeedbackLength(form.Feedback),
			MinLength:       e.rules.MinFeedback(),
			Share:           e.Share(s),
			Submitting:      s.Submitting,
			SubmissionError: s.SubmissionError,
			Retryable:       s.SubmissionError != "",
		}

	case domain.StepDisclosure:
		view.Kind = domain.ViewDisclosure
		v := &domain.DisclosureView{
			Receipt: s.Receipt,
			Share:   e.Share(s),
		}
		if s.Campaign != nil {
			v.Promotion = s.Campaign.Promotion
			v.PixelID = s.Campaign.PixelID
		}
		view.Disclosure = v
	}

	return view
}
