// Package pool provides the execution lanes backing the offload registry:
// a fixed-size pool with a bounded queue, an elastic pool that reclaims
// idle workers, and a single-worker FIFO lane.
package pool

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by Submit after Shutdown has begun.
	ErrClosed = errors.New("pool: closed")

	// ErrQueueFull is returned by Submit when the lane's bounded queue
	// cannot accept more work. Submission never blocks and never drops
	// silently.
	ErrQueueFull = errors.New("pool: queue at capacity")
)

// Executor runs submitted functions on workers it owns.
// Implementations are safe for concurrent use.
type Executor interface {
	// Submit schedules fn for execution without blocking the caller.
	Submit(fn func()) error

	// Shutdown stops intake immediately and waits for accepted work to
	// finish until ctx is done. It is idempotent.
	Shutdown(ctx context.Context) error
}
