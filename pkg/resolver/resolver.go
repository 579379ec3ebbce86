package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// Resolver applies the dual-source contract to the campaign, product and
// review operations of a Backend.
type Resolver struct {
	backend ports.Backend
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger configures a logger for the Resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithHooks registers the OnResolve hook.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Resolver) {
		r.hooks = hooks
	}
}

// New creates a Resolver over backend.
func New(backend ports.Backend, opts ...Option) *Resolver {
	r := &Resolver{
		backend: backend,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Campaign resolves campaign data.
func (r *Resolver) Campaign(ctx context.Context, viewer domain.Viewer, id string, demo bool) Result[domain.CampaignView] {
	res := Resolve(ctx, demo, DemoCampaign,
		func(ctx context.Context) (domain.CampaignView, error) {
			return r.backend.Privileged.Campaign(ctx, viewer, id)
		},
		func(ctx context.Context) (domain.CampaignView, error) {
			return r.backend.Public.Campaign(ctx, domain.Anonymous(), id)
		},
		func(cause error) error {
			return &domain.ResolutionError{Op: "campaign", ID: id, Cause: cause}
		},
	)
	r.report(ctx, "campaign", res.Outcome, res.Err)
	return res
}

// Products resolves the product summaries for ids. An empty id list
// resolves to an empty list without touching either surface.
func (r *Resolver) Products(ctx context.Context, viewer domain.Viewer, ids []string, demo bool) Result[[]domain.ProductSummary] {
	if !demo && len(ids) == 0 {
		return Result[[]domain.ProductSummary]{Value: []domain.ProductSummary{}, Outcome: Success}
	}
	res := Resolve(ctx, demo, DemoProducts,
		func(ctx context.Context) ([]domain.ProductSummary, error) {
			return r.backend.Privileged.Products(ctx, viewer, ids)
		},
		func(ctx context.Context) ([]domain.ProductSummary, error) {
			return r.backend.Public.Products(ctx, domain.Anonymous(), ids)
		},
		func(cause error) error {
			return &domain.ResolutionError{Op: "products", Cause: cause}
		},
	)
	r.report(ctx, "products", res.Outcome, res.Err)
	return res
}

// Submit sends the review. The payload is built once by the caller, so the
// seller sentinel substitution is identical whichever surface accepts it.
func (r *Resolver) Submit(ctx context.Context, viewer domain.Viewer, payload domain.ReviewPayload, demo bool) Result[domain.Receipt] {
	res := Resolve(ctx, demo, DemoReceipt,
		func(ctx context.Context) (domain.Receipt, error) {
			return r.backend.Privileged.SubmitReview(ctx, viewer, payload)
		},
		func(ctx context.Context) (domain.Receipt, error) {
			return r.backend.Public.SubmitReview(ctx, domain.Anonymous(), payload)
		},
		func(cause error) error {
			return &domain.SubmissionError{CampaignID: payload.CampaignID, Cause: cause}
		},
	)
	r.report(ctx, "submit", res.Outcome, res.Err)
	return res
}

func (r *Resolver) report(ctx context.Context, op string, outcome Outcome, err error) {
	switch outcome {
	case Failure:
		r.logger.Warn("Resolution failed on every surface", "op", op, "err", err)
	case Fallback:
		r.logger.Debug("Privileged surface failed, public surface answered", "op", op)
	}

	if r.hooks.OnResolve != nil {
		r.hooks.OnResolve(ctx, &domain.ResolveEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventResolve},
			Op:        op,
			Outcome:   outcome.String(),
		})
	}
}
