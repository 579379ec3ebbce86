package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/pkg/adapters/backend"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/adapters/redis"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/aretw0/funnel/pkg/persistence/middleware"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/redirect"
	"github.com/aretw0/funnel/pkg/tracking"
	"github.com/prometheus/client_golang/prometheus"
)

// App is a configured engine plus the resources it owns.
type App struct {
	Engine   *funnel.Engine
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	closers []func(context.Context) error
}

// Build wires an engine from cfg. The caller must Close the App.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	opts := []funnel.Option{
		funnel.WithLogger(logger),
		funnel.WithThresholds(cfg.Funnel.MinFeedbackLength, cfg.Funnel.ShareThreshold),
		funnel.WithMaxInputSize(cfg.Funnel.MaxInputSize),
	}

	catalog, err := redirect.LoadCatalog(cfg.Funnel.Catalog)
	if err != nil {
		return nil, err
	}
	opts = append(opts, funnel.WithCatalog(catalog))

	storeOpts, err := app.buildStore(ctx)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	opts = append(opts, storeOpts...)

	tracker, err := app.buildTracker()
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	if tracker != nil {
		opts = append(opts, funnel.WithTracker(tracker))
	}

	metrics := observability.NewMetrics(app.Registry)
	opts = append(opts, funnel.WithLifecycleHooks(observability.Combine(
		metrics.Hooks(),
		observability.LogHooks(logger),
	)))

	surfaces, err := buildBackend(cfg)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	engine, err := funnel.New(surfaces, opts...)
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("error initializing funnel: %w", err)
	}
	app.Engine = engine
	return app, nil
}

// Close releases stores and flushes tracking. Errors are joined.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildBackend(cfg config.Config) (ports.Backend, error) {
	if cfg.RemoteBackend() {
		return backend.New(cfg.Backend.PrivilegedURL, cfg.Backend.PublicURL,
			backend.WithTimeout(cfg.Backend.Timeout),
		), nil
	}
	if cfg.Backend.Fixtures != "" {
		fixtures, err := memory.LoadFixtures(cfg.Backend.Fixtures)
		if err != nil {
			return ports.Backend{}, err
		}
		return memory.Backend(fixtures), nil
	}
	// Only the demo campaign resolves.
	return memory.Backend(memory.NewSurface()), nil
}

func (a *App) buildStore(ctx context.Context) ([]funnel.Option, error) {
	cfg := a.Config.Store

	var (
		store ports.StateStore
		opts  []funnel.Option
	)
	switch cfg.Driver {
	case config.StoreRedis:
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithTTL(cfg.TTL),
			redis.WithPrefix(cfg.Prefix),
		)
		a.closers = append(a.closers, func(context.Context) error { return rs.Close() })
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis unavailable: %w", err)
		}
		store = rs
		opts = append(opts, funnel.WithLocker(redis.NewLocker(rs.Client(), cfg.Prefix+"lock:")))
	default:
		store = memory.NewStore(memory.WithTTL(cfg.TTL))
	}

	if cfg.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("fallback key: %w", err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		store = middleware.Chain(store, mw)
	}

	return append(opts, funnel.WithStore(store)), nil
}

func (a *App) buildTracker() (ports.Tracker, error) {
	cfg := a.Config.Tracking

	var sinks tracking.Multi
	if cfg.PixelURL != "" {
		sinks = append(sinks, tracking.NewPixel(cfg.PixelURL))
	}
	if cfg.Log {
		sinks = append(sinks, tracking.Log{Logger: a.Logger})
	}
	if len(sinks) == 0 {
		return nil, nil
	}

	patterns := cfg.MaskPatterns
	if len(patterns) == 0 {
		patterns = tracking.DefaultMaskPatterns
	}
	masked, err := tracking.NewMasked(sinks, patterns)
	if err != nil {
		return nil, err
	}

	dispatcher := tracking.NewDispatcher(masked,
		tracking.WithLogger(a.Logger),
		tracking.WithQueueSize(cfg.QueueSize),
	)
	a.closers = append(a.closers, func(ctx context.Context) error {
		err := dispatcher.Close(ctx)
		if dropped := dispatcher.Dropped(); dropped > 0 {
			a.Logger.Warn("Tracking events dropped", "count", dropped)
		}
		return err
	})
	return dispatcher, nil
}

// viewer builds the terminal viewer from a bearer token.
func viewer(token string) domain.Viewer {
	if token == "" {
		return domain.Anonymous()
	}
	return domain.Viewer{Token: token}
}
