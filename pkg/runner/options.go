package runner

import (
	"log/slog"

	"github.com/aretw0/funnel/pkg/domain"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithHandler configures a custom IOHandler.
func WithHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.handler = handler
	}
}

// WithViewer sets the identity the session is driven as. Defaults to
// anonymous.
func WithViewer(viewer domain.Viewer) Option {
	return func(r *Runner) {
		r.viewer = viewer
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithKeepSession leaves the session mounted when Run returns.
func WithKeepSession(keep bool) Option {
	return func(r *Runner) {
		r.keep = keep
	}
}
