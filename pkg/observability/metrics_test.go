package observability_test

import (
	"context"
	"testing"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStepEnter(ctx, &domain.StepEvent{Step: domain.StepFeedback})
	hooks.OnStepEnter(ctx, &domain.StepEvent{Step: domain.StepFeedback})
	hooks.OnStepLeave(ctx, &domain.StepEvent{Step: domain.StepSelectTarget})
	hooks.OnResolve(ctx, &domain.ResolveEvent{Op: "campaign", Outcome: "fallback"})

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 3)

	got := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			got[f.GetName()] += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, got["funnel_step_visits_total"])
	assert.Equal(t, 1.0, got["funnel_step_exits_total"])
	assert.Equal(t, 1.0, got["funnel_resolutions_total"])
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnStepEnter: func(context.Context, *domain.StepEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{OnStepEnter: func(context.Context, *domain.StepEvent) { order = append(order, "b") }}

	hooks := observability.Combine(a, domain.LifecycleHooks{}, b)
	hooks.OnStepEnter(context.Background(), &domain.StepEvent{})
	hooks.OnStepLeave(context.Background(), &domain.StepEvent{})
	hooks.OnResolve(context.Background(), &domain.ResolveEvent{})

	assert.Equal(t, []string{"a", "b"}, order)
}
