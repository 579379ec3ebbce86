package tracking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recorder struct {
	mu     sync.Mutex
	names  []string
	attrs  []map[string]any
	err    error
	block  chan struct{}
	panics bool
}

func (r *recorder) Emit(ctx context.Context, name string, attrs map[string]any) error {
	if r.block != nil {
		<-r.block
	}
	if r.panics {
		panic("pixel exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.attrs = append(r.attrs, attrs)
	return r.err
}

func (r *recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recorder{}
	d := tracking.NewDispatcher(rec)
	ctx := context.Background()

	require.NoError(t, d.Emit(ctx, "a", nil))
	require.NoError(t, d.Emit(ctx, "b", map[string]any{"step": 1}))
	require.NoError(t, d.Close(ctx))

	assert.Equal(t, []string{"a", "b"}, rec.Names())
}

func TestDispatcher_NeverBlocksOnSlowEmitter(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recorder{block: make(chan struct{})}
	d := tracking.NewDispatcher(rec, tracking.WithQueueSize(1))
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 10; i++ {
		assert.NoError(t, d.Emit(ctx, "step_completed", nil))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Positive(t, d.Dropped())

	close(rec.block)
	require.NoError(t, d.Close(ctx))
}

func TestDispatcher_SwallowsFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	failing := tracking.NewDispatcher(&recorder{err: errors.New("collector down")})
	assert.NoError(t, failing.Emit(ctx, "x", nil))
	require.NoError(t, failing.Close(ctx))
	assert.Equal(t, int64(1), failing.Failed())

	panicking := tracking.NewDispatcher(&recorder{panics: true})
	assert.NoError(t, panicking.Emit(ctx, "x", nil))
	assert.NoError(t, panicking.Emit(ctx, "y", nil))
	require.NoError(t, panicking.Close(ctx))
	assert.Equal(t, int64(2), panicking.Failed())
}

func TestDispatcher_EmitAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	rec := &recorder{}
	d := tracking.NewDispatcher(rec)
	require.NoError(t, d.Close(ctx))
	require.NoError(t, d.Close(ctx))

	assert.NoError(t, d.Emit(ctx, "late", nil))
	assert.Empty(t, rec.Names())
	assert.Equal(t, int64(1), d.Dropped())
}

func TestDispatcher_DetachesCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	var seen error
	var mu sync.Mutex
	tracker := trackerFunc(func(ctx context.Context, _ string, _ map[string]any) error {
		mu.Lock()
		defer mu.Unlock()
		seen = ctx.Err()
		return nil
	})

	d := tracking.NewDispatcher(tracker)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Emit(ctx, "x", nil))
	cancel()
	require.NoError(t, d.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.NoError(t, seen)
}

type trackerFunc func(context.Context, string, map[string]any) error

func (f trackerFunc) Emit(ctx context.Context, name string, attrs map[string]any) error {
	return f(ctx, name, attrs)
}
