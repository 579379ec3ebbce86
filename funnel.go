package funnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/redirect"
	"github.com/aretw0/funnel/pkg/resolver"
	"github.com/aretw0/funnel/pkg/session"
	"github.com/aretw0/funnel/pkg/validation"
	"github.com/google/uuid"
)

// ErrMissingCampaign is returned by Mount for an empty campaign id.
var ErrMissingCampaign = errors.New("campaign id is required")

// Engine is the review funnel orchestrator. It owns every live session:
// callers hand it patches and navigation requests and get back snapshots.
// All methods are safe for concurrent use.
type Engine struct {
	runtime  *runtime.Engine
	resolver *resolver.Resolver
	sessions *session.Manager
	streams  *streams

	store    ports.StateStore
	locker   ports.DistributedLocker
	tracker  ports.Tracker
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	rules    validation.Rules
	policy   redirect.Policy
	maxInput int
	newID    func() string
}

// New creates an Engine over backend. Both surfaces are required; demo
// sessions never call either of them.
func New(backend ports.Backend, opts ...Option) (*Engine, error) {
	if backend.Privileged == nil || backend.Public == nil {
		return nil, fmt.Errorf("backend requires both a privileged and a public surface")
	}

	e := &Engine{
		logger:   logging.NewNop(),
		rules:    validation.Default(),
		policy:   redirect.DefaultPolicy(),
		maxInput: validation.DefaultMaxInputSize,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}

	e.sessions = session.NewManager(e.store, sessionOpts...)
	e.streams = newStreams(e.logger)
	e.resolver = resolver.New(backend,
		resolver.WithLogger(e.logger),
		resolver.WithHooks(e.hooks),
	)
	e.runtime = runtime.NewEngine(
		runtime.WithRules(e.rules),
		runtime.WithPolicy(e.policy),
		runtime.WithHooks(e.hooks),
		runtime.WithLogger(e.logger),
		runtime.WithMaxInputSize(e.maxInput),
	)
	return e, nil
}

// Rules returns the active validation rules.
func (e *Engine) Rules() validation.Rules {
	return e.rules
}

// Mount opens a session for campaignID and resolves its data. The session
// is visible in the loading phase while resolution is outstanding. The
// returned session is active, or in the error phase when neither surface
// could supply the campaign.
func (e *Engine) Mount(ctx context.Context, viewer domain.Viewer, campaignID string) (*domain.Session, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, ErrMissingCampaign
	}

	s := domain.NewSession(e.newID(), campaignID)
	if err := e.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	e.logger.Debug("Session mounted", "session_id", s.ID, "campaign_id", campaignID, "demo", s.IsDemo)

	settle := e.resolve(ctx, viewer, s)

	out, err := e.mutate(context.WithoutCancel(ctx), s.ID, func(cur *domain.Session) (*domain.Session, error) {
		if cur.Phase != domain.PhaseLoading {
			return cur, nil
		}
		return settle(cur), nil
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		e.logger.Debug("Resolution finished after unmount, discarded", "session_id", s.ID)
		return nil, domain.ErrSessionClosed
	}
	return out, err
}

// resolve fetches campaign then product data and returns the transition to
// apply once the session lock is held again.
func (e *Engine) resolve(ctx context.Context, viewer domain.Viewer, s *domain.Session) func(*domain.Session) *domain.Session {
	campaign := e.resolver.Campaign(ctx, viewer, s.CampaignID, s.IsDemo)
	if !campaign.OK() {
		return func(cur *domain.Session) *domain.Session {
			return e.runtime.Fail(cur, campaign.Err)
		}
	}

	products := e.resolver.Products(ctx, viewer, campaign.Value.ProductIDs, s.IsDemo)
	if !products.OK() {
		return func(cur *domain.Session) *domain.Session {
			return e.runtime.Fail(cur, products.Err)
		}
	}

	return func(cur *domain.Session) *domain.Session {
		return e.runtime.Hydrate(ctx, cur, campaign.Value, products.Value)
	}
}

// Session returns a snapshot of the session.
func (e *Engine) Session(ctx context.Context, id string) (*domain.Session, error) {
	return e.sessions.Load(ctx, id)
}

// Sessions lists live session ids.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// View renders the active screen of the session.
func (e *Engine) View(ctx context.Context, id string) (domain.View, error) {
	s, err := e.sessions.Load(ctx, id)
	if err != nil {
		return domain.View{}, err
	}
	return e.runtime.Render(s), nil
}

// Update is the single entry point for form changes coming from a step view.
func (e *Engine) Update(ctx context.Context, id string, patch domain.FormPatch) (*domain.Session, error) {
	return e.mutate(ctx, id, func(cur *domain.Session) (*domain.Session, error) {
		return e.runtime.Update(cur, patch)
	})
}

// Advance validates the current step and moves forward one step. Leaving
// the feedback step submits the review first; while that call is out the
// session rejects input, and a failure leaves it on the feedback step with
// a retryable error (the returned error wraps domain.ErrSubmission).
func (e *Engine) Advance(ctx context.Context, viewer domain.Viewer, id string) (*domain.Session, error) {
	var (
		from    domain.Step
		payload domain.ReviewPayload
		submit  bool
	)
	s, err := e.mutate(ctx, id, func(cur *domain.Session) (*domain.Session, error) {
		from = cur.CurrentStep
		if e.runtime.NeedsSubmission(cur) {
			next, p, err := e.runtime.BeginSubmission(cur)
			if err != nil {
				return next, err
			}
			payload, submit = p, true
			return next, nil
		}
		return e.runtime.Advance(ctx, cur)
	})
	if err != nil {
		return s, err
	}
	if !submit {
		if s.CurrentStep != from {
			e.track(ctx, s, domain.TrackStepCompleted, map[string]any{"step": int(from)})
		}
		return s, nil
	}

	res := e.resolver.Submit(ctx, viewer, payload, s.IsDemo)

	final, err := e.mutate(context.WithoutCancel(ctx), id, func(cur *domain.Session) (*domain.Session, error) {
		if !cur.Submitting {
			return cur, domain.ErrSessionClosed
		}
		if res.OK() {
			return e.runtime.CompleteSubmission(ctx, cur, res.Value), nil
		}
		return e.runtime.AbortSubmission(cur, res.Err), nil
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		e.logger.Debug("Submission finished after unmount, discarded", "session_id", id)
		return nil, domain.ErrSessionClosed
	}
	if err != nil {
		return final, err
	}
	if !res.OK() {
		return final, res.Err
	}

	e.track(ctx, final, domain.TrackStepCompleted, map[string]any{"step": int(from)})
	e.track(ctx, final, domain.TrackReviewRecorded, map[string]any{
		"review_id":   res.Value.ReviewID,
		"rating":      final.Form.Rating,
		"marketplace": final.Form.Marketplace,
		"is_seller":   final.Form.IsSeller(),
		"source":      res.Outcome.String(),
	})
	return final, nil
}

// Back moves one step backward. The form is never touched.
func (e *Engine) Back(ctx context.Context, id string) (*domain.Session, error) {
	return e.mutate(ctx, id, func(cur *domain.Session) (*domain.Session, error) {
		return e.runtime.Back(ctx, cur)
	})
}

// Navigate follows an external address change (back button, typed URL).
// Whatever the address says, the session ends on the canonical location
// of a valid step.
func (e *Engine) Navigate(ctx context.Context, id, location string) (*domain.Session, error) {
	return e.mutate(ctx, id, func(cur *domain.Session) (*domain.Session, error) {
		return e.runtime.Goto(ctx, cur, location)
	})
}

// Share evaluates the redirect policy. When the affordance is enabled the
// call counts as the customer opening it and a share_opened event is sent.
// Opening the URL and copying the feedback are the caller's job.
func (e *Engine) Share(ctx context.Context, id string) (domain.ShareDecision, error) {
	s, err := e.sessions.Load(ctx, id)
	if err != nil {
		return domain.ShareDecision{}, err
	}
	switch s.Phase {
	case domain.PhaseLoading:
		return domain.ShareDecision{}, domain.ErrNotReady
	case domain.PhaseError:
		return domain.ShareDecision{}, domain.ErrSessionFailed
	}

	decision := e.runtime.Share(s)
	if decision.Enabled {
		e.track(ctx, s, domain.TrackShareOpened, map[string]any{
			"kind":   string(decision.Kind),
			"domain": decision.Domain,
		})
	}
	return decision, nil
}

// Unmount ends the session. Work still in flight for it is discarded when
// it completes.
func (e *Engine) Unmount(ctx context.Context, id string) error {
	if err := e.sessions.Delete(ctx, id); err != nil {
		return err
	}
	e.streams.close(id)
	e.logger.Debug("Session unmounted", "session_id", id)
	return nil
}

// Subscribe streams the changes of one session until the returned cancel
// func is called or the session is unmounted.
func (e *Engine) Subscribe(id string) (<-chan *domain.SessionDiff, func()) {
	return e.streams.subscribe(id)
}

// mutate runs fn under the session lock and broadcasts what changed.
func (e *Engine) mutate(ctx context.Context, id string, fn func(*domain.Session) (*domain.Session, error)) (*domain.Session, error) {
	var before *domain.Session
	after, err := e.sessions.Update(ctx, id, func(cur *domain.Session) (*domain.Session, error) {
		before = cur
		return fn(cur)
	})
	if err == nil && before != nil && after != nil && after != before {
		e.streams.broadcast(id, domain.Diff(before, after))
	}
	return after, err
}

// track emits best effort. Demo sessions are never tracked; tracker errors
// and panics are logged and swallowed.
func (e *Engine) track(ctx context.Context, s *domain.Session, name string, attrs map[string]any) {
	if e.tracker == nil || s == nil || s.IsDemo {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("Tracker panicked", "event", name, "err", fmt.Errorf("panic: %v", r))
		}
	}()

	attrs["campaign_id"] = s.CampaignID
	attrs["session_id"] = s.ID
	if err := e.tracker.Emit(ctx, name, attrs); err != nil {
		e.logger.Debug("Tracking failed", "event", name, "err", err)
	}
}
