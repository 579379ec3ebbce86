package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	// ErrCampaignNotFound is returned for an unknown campaign id.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrUnavailable is returned while the surface is switched off.
	ErrUnavailable = errors.New("surface unavailable")
	// ErrUnauthenticated is returned by a surface that requires a viewer token.
	ErrUnauthenticated = errors.New("authentication required")
)

// Surface implements ports.Surface over in-memory fixtures.
// It is used by the terminal funnel, by tests, and for local development.
// Safe for concurrent use.
type Surface struct {
	mu           sync.RWMutex
	campaigns    map[string]domain.CampaignView
	products     map[string]domain.ProductSummary
	reviews      []domain.ReviewPayload
	calls        []string
	down         bool
	requireToken bool
}

// NewSurface creates an empty surface.
func NewSurface() *Surface {
	return &Surface{
		campaigns: make(map[string]domain.CampaignView),
		products:  make(map[string]domain.ProductSummary),
	}
}

// NewPrivilegedSurface creates a surface that rejects anonymous viewers.
func NewPrivilegedSurface() *Surface {
	s := NewSurface()
	s.requireToken = true
	return s
}

// AddCampaign registers or replaces a campaign.
func (s *Surface) AddCampaign(c domain.CampaignView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
}

// AddProduct registers or replaces a product.
func (s *Surface) AddProduct(p domain.ProductSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SetAvailable switches the surface on or off. An unavailable surface
// fails every call, which is how tests simulate outages.
func (s *Surface) SetAvailable(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = !up
}

// Reviews returns the recorded submissions.
func (s *Surface) Reviews() []domain.ReviewPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ReviewPayload(nil), s.reviews...)
}

// Calls returns every operation invoked, in order.
func (s *Surface) Calls() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.calls...)
}

func (s *Surface) enter(op string, viewer domain.Viewer) error {
	s.calls = append(s.calls, op)
	if s.down {
		return ErrUnavailable
	}
	if s.requireToken && !viewer.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// Campaign implements ports.CampaignSource.
func (s *Surface) Campaign(ctx context.Context, viewer domain.Viewer, id string) (domain.CampaignView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("campaign", viewer); err != nil {
		return domain.CampaignView{}, err
	}
	c, ok := s.campaigns[id]
	if !ok {
		return domain.CampaignView{}, fmt.Errorf("%w: %s", ErrCampaignNotFound, id)
	}
	c.Marketplaces = append([]string(nil), c.Marketplaces...)
	c.ProductIDs = append([]string(nil), c.ProductIDs...)
	return c, nil
}

// Products implements ports.ProductSource. Unknown ids are skipped.
func (s *Surface) Products(ctx context.Context, viewer domain.Viewer, ids []string) ([]domain.ProductSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("products", viewer); err != nil {
		return nil, err
	}
	out := make([]domain.ProductSummary, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// SubmitReview implements ports.ReviewSink.
func (s *Surface) SubmitReview(ctx context.Context, viewer domain.Viewer, payload domain.ReviewPayload) (domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("submit", viewer); err != nil {
		return domain.Receipt{}, err
	}
	s.reviews = append(s.reviews, payload)
	return domain.Receipt{ReviewID: uuid.NewString(), RecordedAt: time.Now().UTC()}, nil
}

// Fixtures is the YAML shape of a local catalog file.
type Fixtures struct {
	Campaigns []domain.CampaignView   `yaml:"campaigns"`
	Products  []domain.ProductSummary `yaml:"products"`
}

// LoadFixtures reads a YAML fixture file into a fresh surface.
func LoadFixtures(path string) (*Surface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	s := NewSurface()
	for _, c := range fx.Campaigns {
		s.AddCampaign(c)
	}
	for _, p := range fx.Products {
		s.AddProduct(p)
	}
	return s, nil
}

// Clone copies the fixtures of s into a new surface with the same data and
// the given token requirement. It lets one fixture file back both variants.
func (s *Surface) Clone(requireToken bool) *Surface {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := NewSurface()
	out.requireToken = requireToken
	for k, v := range s.campaigns {
		out.campaigns[k] = v
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	return out
}

// Backend builds a privileged/public pair over the same fixtures.
func Backend(fixtures *Surface) ports.Backend {
	return ports.Backend{
		Privileged: fixtures.Clone(true),
		Public:     fixtures.Clone(false),
	}
}
