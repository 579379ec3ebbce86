package funnel_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
)

// ExampleEngine_demo walks the demo campaign from the first step to the
// reward disclosure. The demo never calls the backend, so the fixtures can
// stay empty.
func ExampleEngine_demo() {
	eng, err := funnel.New(memory.Backend(memory.NewSurface()),
		funnel.WithIDGenerator(func() string { return "example" }),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	viewer := domain.Anonymous()

	// 1. Mount resolves the demo campaign from static data.
	s, err := eng.Mount(ctx, viewer, domain.DemoCampaignID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(s.Location)

	str := func(v string) *string { return &v }
	rating, used := 5, true

	// 2. Fill each step and continue.
	patches := []domain.FormPatch{
		{Target: str("demo-product-1"), Marketplace: str("us"), OrderID: str("111-2223334"), Rating: &rating, UsedSevenDays: &used},
		{Name: str("Ada"), Email: str("ada@example.com")},
		{Feedback: str(strings.Repeat("Boils fast and pours clean. ", 2))},
	}
	for _, p := range patches {
		if _, err := eng.Update(ctx, s.ID, p); err != nil {
			log.Fatal(err)
		}
		if s, err = eng.Advance(ctx, viewer, s.ID); err != nil {
			log.Fatal(err)
		}
		fmt.Println(s.Location)
	}

	// 3. Render the disclosure view.
	view, err := eng.View(ctx, s.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(view.Kind, view.Disclosure.Share.Kind, view.Disclosure.Share.Domain)

	// Output:
	// /review/demo-campaign/step/1
	// /review/demo-campaign/step/2
	// /review/demo-campaign/step/3
	// /review/demo-campaign/step/4
	// disclosure product_review www.amazon.com
}
