package resolver

import (
	"context"
	"errors"
)

// Attempt is one surface's version of an operation.
type Attempt[T any] func(ctx context.Context) (T, error)

// Resolve runs the dual-source contract:
//
//   - demo: return fixture() without calling either attempt.
//   - otherwise call privileged; on success stop.
//   - on any privileged failure call public with the same inputs; on success stop.
//   - if both fail, return Failure carrying both causes.
//
// Calls are strictly sequential. translate turns the joined cause into the
// domain error the caller is allowed to see.
func Resolve[T any](ctx context.Context, demo bool, fixture func() T, privileged, public Attempt[T], translate func(error) error) Result[T] {
	if demo {
		return Result[T]{Value: fixture(), Outcome: Demo}
	}

	value, privErr := privileged(ctx)
	if privErr == nil {
		return Result[T]{Value: value, Outcome: Success}
	}

	// An unmounted caller has nobody to hand a fallback result to.
	if err := ctx.Err(); err != nil {
		return Result[T]{Err: translate(errors.Join(privErr, err))}
	}

	value, pubErr := public(ctx)
	if pubErr == nil {
		return Result[T]{Value: value, Outcome: Fallback}
	}

	var zero T
	return Result[T]{Value: zero, Err: translate(errors.Join(privErr, pubErr))}
}
