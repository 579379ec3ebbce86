package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/redirect"
	"github.com/aretw0/funnel/pkg/validation"
)

// ErrSubmissionRequired is returned by Advance when leaving the current step
// needs a submission first. Callers use BeginSubmission instead.
var ErrSubmissionRequired = errors.New("leaving this step requires a submission")

// ErrForeignLocation is returned when an address names another campaign.
var ErrForeignLocation = errors.New("location belongs to another campaign")

// Engine is the pure funnel state machine. Every method takes a session and
// returns a new snapshot; the input is never mutated. It performs no I/O.
type Engine struct {
	rules    validation.Rules
	policy   redirect.Policy
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	maxInput int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithRules sets the step validation rules.
func WithRules(rules validation.Rules) EngineOption {
	return func(e *Engine) {
		e.rules = rules
		e.policy.Rules = rules
	}
}

// WithPolicy sets the redirect policy. Its Rules are replaced by the
// engine's so both thresholds stay in sync.
func WithPolicy(policy redirect.Policy) EngineOption {
	return func(e *Engine) {
		rules := e.rules
		e.policy = policy
		e.policy.Rules = rules
	}
}

// WithHooks registers lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxInputSize bounds each text field of a patch, in bytes.
func WithMaxInputSize(n int) EngineOption {
	return func(e *Engine) {
		e.maxInput = n
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine with the default rules and policy.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		rules:    validation.Default(),
		policy:   redirect.DefaultPolicy(),
		logger:   logging.NewNop(),
		maxInput: validation.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the active validation rules.
func (e *Engine) Rules() validation.Rules {
	return e.rules
}

// guard rejects input the session cannot accept in its current phase.
func (e *Engine) guard(s *domain.Session) error {
	switch s.Phase {
	case domain.PhaseLoading:
		return domain.ErrNotReady
	case domain.PhaseError:
		return domain.ErrSessionFailed
	}
	if s.Submitting {
		return domain.ErrSubmissionInFlight
	}
	return nil
}

// Hydrate applies resolved campaign data and enters the current step.
// An inactive campaign fails the session instead.
func (e *Engine) Hydrate(ctx context.Context, s *domain.Session, campaign domain.CampaignView, products []domain.ProductSummary) *domain.Session {
	if !campaign.Active {
		return e.Fail(s, domain.ErrCampaignInactive)
	}

	next := s.Snapshot()
	campaign.Products = append([]domain.ProductSummary(nil), products...)
	next.Campaign = &campaign
	next.Phase = domain.PhaseActive
	next.ResolutionError = ""
	next.MoveTo(next.CurrentStep)

	e.emitStep(ctx, domain.EventStepEnter, next)
	return next
}

// Fail moves the session into the terminal error phase.
func (e *Engine) Fail(s *domain.Session, cause error) *domain.Session {
	next := s.Snapshot()
	next.Phase = domain.PhaseError
	next.ResolutionError = FailureMessage(cause)
	next.UpdatedAt = time.Now().UTC()
	return next
}

// Update sanitizes a patch from a step view and merges it into the form.
func (e *Engine) Update(s *domain.Session, patch domain.FormPatch) (*domain.Session, error) {
	if err := e.guard(s); err != nil {
		return s, err
	}
	patch, err := validation.SanitizePatch(patch, e.maxInput)
	if err != nil {
		return s, err
	}
	next := s.Snapshot()
	next.Form = patch.Apply(s.Form, s.Campaign)
	next.UpdatedAt = time.Now().UTC()
	return next, nil
}

// Validate checks the rule of every step up to and including the current
// one, reporting the first that fails. A session that reached a later step
// through its location never skips an earlier step's rule.
func (e *Engine) Validate(s *domain.Session) error {
	for step := domain.FirstStep; step <= s.CurrentStep && step < domain.LastStep; step = step.Next() {
		if errs := e.rules.Check(step, s.Form, s.Campaign); errs != nil {
			return &domain.ValidationError{Step: step, Fields: errs}
		}
	}
	return nil
}

// NeedsSubmission reports whether leaving the current step must go through
// the review submission. Demo sessions and already-submitted sessions never do.
func (e *Engine) NeedsSubmission(s *domain.Session) bool {
	return s.CurrentStep == domain.StepFeedback && !s.Submitted && !s.IsDemo
}

// Advance moves forward by exactly one step after validation. Step 4 is
// stable: advancing from it is a no-op.
func (e *Engine) Advance(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if err := e.guard(s); err != nil {
		return s, err
	}
	if s.CurrentStep == domain.LastStep {
		return s, nil
	}
	if err := e.Validate(s); err != nil {
		return s, err
	}
	if e.NeedsSubmission(s) {
		return s, ErrSubmissionRequired
	}
	return e.move(ctx, s, s.CurrentStep.Next()), nil
}

// BeginSubmission validates steps 1 through 3 and marks a submission as in
// flight, returning the payload to send.
func (e *Engine) BeginSubmission(s *domain.Session) (*domain.Session, domain.ReviewPayload, error) {
	if err := e.guard(s); err != nil {
		return s, domain.ReviewPayload{}, err
	}
	if !e.NeedsSubmission(s) {
		return s, domain.ReviewPayload{}, errors.New("no submission pending")
	}
	if err := e.Validate(s); err != nil {
		return s, domain.ReviewPayload{}, err
	}

	next := s.Snapshot()
	next.Submitting = true
	next.SubmissionError = ""
	next.UpdatedAt = time.Now().UTC()
	return next, domain.BuildPayload(next), nil
}

// CompleteSubmission records the receipt and enters the disclosure step.
func (e *Engine) CompleteSubmission(ctx context.Context, s *domain.Session, receipt domain.Receipt) *domain.Session {
	next := s.Snapshot()
	next.Submitting = false
	next.Submitted = true
	next.SubmissionError = ""
	next.Receipt = &receipt
	return e.move(ctx, next, domain.StepDisclosure)
}

// AbortSubmission keeps the session on the feedback step with a retryable
// error. The form is left untouched.
func (e *Engine) AbortSubmission(s *domain.Session, cause error) *domain.Session {
	next := s.Snapshot()
	next.Submitting = false
	next.SubmissionError = "We could not record your review. Please try again."
	next.UpdatedAt = time.Now().UTC()
	e.logger.Debug("Submission aborted", "session_id", s.ID, "err", cause)
	return next
}

// Back moves backward by exactly one step. The form is preserved. Back on
// the first step is a no-op.
func (e *Engine) Back(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if err := e.guard(s); err != nil {
		return s, err
	}
	if s.CurrentStep == domain.FirstStep {
		return s, nil
	}
	return e.move(ctx, s, s.CurrentStep.Prev()), nil
}

// Goto follows external navigation to an address. The step is clamped into
// the funnel; the session's Location afterwards is always canonical.
func (e *Engine) Goto(ctx context.Context, s *domain.Session, location string) (*domain.Session, error) {
	if err := e.guard(s); err != nil {
		return s, err
	}
	id, step, ok := domain.ParseLocation(location)
	if !ok || id != s.CampaignID {
		return s, ErrForeignLocation
	}
	if step == s.CurrentStep && s.Location == location {
		return s, nil
	}
	return e.move(ctx, s, step), nil
}

// Share applies the redirect policy to the session.
func (e *Engine) Share(s *domain.Session) domain.ShareDecision {
	if s.Phase != domain.PhaseActive {
		return domain.ShareDecision{}
	}
	return e.policy.Decide(redirect.InputFrom(s.Form))
}

func (e *Engine) move(ctx context.Context, s *domain.Session, to domain.Step) *domain.Session {
	next := s.Snapshot()
	if to != s.CurrentStep {
		e.emitStep(ctx, domain.EventStepLeave, s)
	}
	next.MoveTo(to)
	if to != s.CurrentStep {
		e.emitStep(ctx, domain.EventStepEnter, next)
	}
	return next
}

func (e *Engine) emitStep(ctx context.Context, typ domain.EventType, s *domain.Session) {
	hook := e.hooks.OnStepEnter
	if typ == domain.EventStepLeave {
		hook = e.hooks.OnStepLeave
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.StepEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: typ, SessionID: s.ID},
		CampaignID: s.CampaignID,
		Step:       s.CurrentStep,
	})
}

// FailureMessage is the customer-facing text for a resolution failure.
// Transport detail never reaches the customer.
func FailureMessage(cause error) string {
	switch {
	case errors.Is(cause, domain.ErrCampaignInactive):
		return "This campaign has ended."
	case errors.Is(cause, domain.ErrResolution):
		return "This campaign is not available right now."
	default:
		return "We could not load this campaign."
	}
}
