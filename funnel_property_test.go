package funnel_test

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Actions encoded as small ints: 0 back, 1 advance, anything else is an
// address jump to step (n - 4), which covers negative, valid and overflow
// step numbers.
func applyAction(ctx context.Context, eng *funnel.Engine, id string, action int) (*domain.Session, error) {
	switch action {
	case 0:
		return eng.Back(ctx, id)
	case 1:
		return eng.Advance(ctx, domain.Anonymous(), id)
	default:
		return eng.Navigate(ctx, id, "/review/"+domain.DemoCampaignID+"/step/"+strconv.Itoa(action-4))
	}
}

func TestProperty_StepAndLocationStayCanonical(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("current step is in range and matches the decoded address", prop.ForAll(
		func(actions []int) bool {
			ctx := context.Background()
			eng, err := funnel.New(newFixture().backend())
			if err != nil {
				return false
			}
			s, err := eng.Mount(ctx, domain.Anonymous(), domain.DemoCampaignID)
			if err != nil {
				return false
			}
			walkDemoForm(ctx, eng, s.ID)

			for _, a := range actions {
				next, err := applyAction(ctx, eng, s.ID, a)
				if err != nil {
					return false
				}
				_, step, ok := domain.ParseLocation(next.Location)
				if !ok || !next.CurrentStep.Valid() || step != next.CurrentStep {
					return false
				}
				if !domain.IsCanonical(next.Location) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 12)),
	))

	properties.TestingRun(t)
}

func TestProperty_BackNeverLosesData(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("form is unchanged by back", prop.ForAll(
		func(start int, feedback string, rating int) bool {
			ctx := context.Background()
			eng, err := funnel.New(newFixture().backend())
			if err != nil {
				return false
			}
			s, err := eng.Mount(ctx, domain.Anonymous(), domain.DemoCampaignID)
			if err != nil {
				return false
			}
			if _, err := eng.Update(ctx, s.ID, domain.FormPatch{Feedback: &feedback, Rating: &rating}); err != nil {
				return false
			}
			before, err := eng.Navigate(ctx, s.ID, domain.Location(domain.DemoCampaignID, domain.Step(start)))
			if err != nil {
				return false
			}
			after, err := eng.Back(ctx, s.ID)
			if err != nil {
				return false
			}
			return after.Form.Equal(before.Form)
		},
		gen.IntRange(1, 4),
		gen.AlphaString(),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}

// walkDemoForm fills every step of a demo session without advancing.
func walkDemoForm(ctx context.Context, eng *funnel.Engine, id string) {
	_, _ = eng.Update(ctx, id, domain.FormPatch{
		Target:        ptr("demo-product-2"),
		Marketplace:   ptr("gb"),
		OrderID:       ptr("A-1"),
		Rating:        ptr(4),
		UsedSevenDays: ptr(false),
		Name:          ptr("Lin"),
		Email:         ptr("lin@example.com"),
		Feedback:      ptr(strings.Repeat("good ", 10)),
	})
}
