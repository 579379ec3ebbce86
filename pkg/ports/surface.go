package ports

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

// CampaignSource resolves campaign data by id.
type CampaignSource interface {
	Campaign(ctx context.Context, viewer domain.Viewer, id string) (domain.CampaignView, error)
}

// ProductSource resolves product summaries by id.
type ProductSource interface {
	Products(ctx context.Context, viewer domain.Viewer, ids []string) ([]domain.ProductSummary, error)
}

// ReviewSink records a submitted review.
type ReviewSink interface {
	SubmitReview(ctx context.Context, viewer domain.Viewer, payload domain.ReviewPayload) (domain.Receipt, error)
}

// Surface is one backend variant (privileged or public) exposing every
// operation the funnel consumes. Both variants share the same shape.
type Surface interface {
	CampaignSource
	ProductSource
	ReviewSink
}

// Backend pairs the privileged surface (requires an authenticated viewer and
// may return richer data) with the public fallback.
type Backend struct {
	Privileged Surface
	Public     Surface
}
