package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/ports"
)

// DefaultQueueSize bounds the number of undelivered events.
const DefaultQueueSize = 256

type event struct {
	ctx   context.Context
	name  string
	attrs map[string]any
}

// Dispatcher is an asynchronous ports.Tracker. Emit never blocks and never
// fails; delivery happens on a single background goroutine.
type Dispatcher struct {
	next   ports.Tracker
	logger *slog.Logger
	queue  chan event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	dropped atomic.Int64
	failed  atomic.Int64
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*dispatcherConfig)

type dispatcherConfig struct {
	logger    *slog.Logger
	queueSize int
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(c *dispatcherConfig) {
		c.logger = logger
	}
}

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) DispatcherOption {
	return func(c *dispatcherConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// NewDispatcher starts a dispatcher delivering to next. Call Close to stop it.
func NewDispatcher(next ports.Tracker, opts ...DispatcherOption) *Dispatcher {
	cfg := dispatcherConfig{
		logger:    logging.NewNop(),
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Dispatcher{
		next:   next,
		logger: cfg.logger,
		queue:  make(chan event, cfg.queueSize),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

// Emit queues an event. The context is detached from cancellation so an
// event fired at the end of a request still gets delivered.
func (d *Dispatcher) Emit(ctx context.Context, name string, attrs map[string]any) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return nil
	}

	ev := event{ctx: context.WithoutCancel(ctx), name: name, attrs: copyAttrs(attrs)}
	select {
	case d.queue <- ev:
	default:
		d.dropped.Add(1)
		d.logger.Debug("Tracking queue full, event dropped", "event", name)
	}
	return nil
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev event) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.logger.Debug("Tracking emitter panicked", "event", ev.name, "err", fmt.Errorf("panic: %v", r))
		}
	}()
	if err := d.next.Emit(ev.ctx, ev.name, ev.attrs); err != nil {
		d.failed.Add(1)
		d.logger.Debug("Tracking emit failed", "event", ev.name, "err", err)
	}
}

// Close stops accepting events and waits until queued ones are delivered
// or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns how many events were discarded without delivery.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Failed returns how many deliveries returned an error or panicked.
func (d *Dispatcher) Failed() int64 {
	return d.failed.Load()
}

func copyAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
