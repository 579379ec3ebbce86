package funnel

import (
	"log/slog"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/redirect"
)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore sets where live sessions are kept. Defaults to process memory.
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithTracker sets the analytics side channel. Emit is called synchronously,
// so slow trackers belong behind a tracking.Dispatcher.
func WithTracker(tracker ports.Tracker) Option {
	return func(e *Engine) {
		e.tracker = tracker
	}
}

// WithThresholds overrides the minimum feedback length and the lowest
// rating invited to share. Zero keeps the default.
func WithThresholds(minFeedback, shareRating int) Option {
	return func(e *Engine) {
		if minFeedback > 0 {
			e.rules.MinFeedbackLength = minFeedback
		}
		if shareRating > 0 {
			e.policy.ShareThreshold = shareRating
		}
	}
}

// WithCatalog sets the marketplace catalog used for share links.
func WithCatalog(catalog redirect.Catalog) Option {
	return func(e *Engine) {
		e.policy.Catalog = catalog
	}
}

// WithMaxInputSize bounds each text field, in bytes.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		e.maxInput = n
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}
