package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the funnel collectors.
type Metrics struct {
	StepVisits  *prometheus.CounterVec
	StepExits   *prometheus.CounterVec
	Resolutions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_step_visits_total",
				Help: "Total number of times a funnel step was entered",
			},
			[]string{"step"},
		),
		StepExits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_step_exits_total",
				Help: "Total number of times a funnel step was left",
			},
			[]string{"step"},
		),
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "funnel_resolutions_total",
				Help: "Dual-source lookups by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.StepVisits, m.StepExits, m.Resolutions)
	}
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepVisits.WithLabelValues(e.Step.String()).Inc()
		},
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			m.StepExits.WithLabelValues(e.Step.String()).Inc()
		},
		OnResolve: func(_ context.Context, e *domain.ResolveEvent) {
			m.Resolutions.WithLabelValues(e.Op, e.Outcome).Inc()
		},
	}
}

// LogHooks returns lifecycle hooks that log every event at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_enter", "session_id", e.SessionID, "step", e.Step)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "step", e.Step)
		},
		OnResolve: func(ctx context.Context, e *domain.ResolveEvent) {
			logger.DebugContext(ctx, "resolve", "op", e.Op, "outcome", e.Outcome)
		},
	}
}

// Combine fans each event out to every non-nil hook, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range sets {
				if h.OnStepEnter != nil {
					h.OnStepEnter(ctx, e)
				}
			}
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			for _, h := range sets {
				if h.OnStepLeave != nil {
					h.OnStepLeave(ctx, e)
				}
			}
		},
		OnResolve: func(ctx context.Context, e *domain.ResolveEvent) {
			for _, h := range sets {
				if h.OnResolve != nil {
					h.OnResolve(ctx, e)
				}
			}
		},
	}
}
