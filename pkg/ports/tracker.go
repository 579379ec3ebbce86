package ports

import "context"

// Tracker is the fire-and-forget analytics side channel.
// Implementations may block or fail; callers never wait on them for
// correctness and swallow any error.
type Tracker interface {
	Emit(ctx context.Context, name string, attrs map[string]any) error
}
