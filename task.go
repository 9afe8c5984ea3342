package offload

import (
	"context"
	"time"

	"github.com/ygrebnov/errorc"
)

// Task is the canonical shape of offloaded work. It receives a context
// that is cancelled when the race is decided (completion, timeout, caller
// cancellation) or when the registry's shutdown grace period expires.
// Honoring the context is optional but recommended; work that ignores it
// keeps running detached after a timeout.
type Task[R any] func(context.Context) (R, error)

// TaskValue adapts func(ctx) R to Task[R] for work that cannot fail.
func TaskValue[R any](fn func(context.Context) R) Task[R] {
	return func(ctx context.Context) (R, error) { return fn(ctx), nil }
}

// Fallback produces a substitute value from the error that prevented the
// work from completing. It must not fail: a panic inside a Fallback is a
// programming error and surfaces from Submit as ErrFallbackFailed.
type Fallback[R any] func(error) R

// FallbackValue adapts a constant substitute value to Fallback[R].
func FallbackValue[R any](v R) Fallback[R] {
	return func(error) R { return v }
}

// Descriptor describes one submission. It is consumed by a single Submit
// call and carries no cross-call state.
type Descriptor[R any] struct {
	// Kind selects the lane the work runs on.
	Kind Kind

	// Timeout bounds how long the caller waits for Work. Must be > 0.
	Timeout time.Duration

	// Work is the operation to offload. Must be non-nil.
	Work Task[R]

	// Fallback produces the substitute value when Work fails or times
	// out. Must be non-nil.
	Fallback Fallback[R]

	// OnError, when non-nil, observes the error that triggered the
	// fallback. It is invoked exactly once per failing or timing-out
	// submission, never on success or cancellation, and never affects
	// control flow.
	OnError func(error)
}

func (d Descriptor[R]) validate() error {
	switch {
	case d.Timeout <= 0:
		return errorc.With(ErrInvalidDescriptor, errorc.String("reason", "timeout must be positive"))
	case d.Work == nil:
		return errorc.With(ErrInvalidDescriptor, errorc.String("reason", "work function is required"))
	case d.Fallback == nil:
		return errorc.With(ErrInvalidDescriptor, errorc.String("reason", "fallback function is required"))
	}
	return nil
}

// State is the terminal state of a submission.
type State int

const (
	// Completed: the work finished successfully before the timeout.
	Completed State = iota

	// FallbackApplied: the work failed or the timeout elapsed first; the
	// outcome value came from the fallback and Cause records why.
	FallbackApplied

	// Cancelled: the caller's context was done before either the work or
	// the timer; the fallback was not invoked.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Completed:
		return "completed"
	case FallbackApplied:
		return "fallback_applied"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of a submission. Exactly one
// Outcome is produced per Submit call.
type Outcome[R any] struct {
	State State

	// Value holds the work's result when State is Completed, or the
	// fallback value when State is FallbackApplied. Zero when Cancelled.
	Value R

	// Cause is nil for Completed outcomes. For FallbackApplied it is the
	// work error or ErrTimeout; for Cancelled it wraps the caller's
	// context error.
	Cause error
}
