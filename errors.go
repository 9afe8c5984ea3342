package offload

import "errors"

const Namespace = "offload"

var (
	// ErrTimeout is the cause recorded on an outcome when the timer wins
	// the race against the work. It never escapes Submit as an error.
	ErrTimeout = errors.New(Namespace + ": work timed out")

	// ErrCapacityExceeded is returned by Submit when the selected lane's
	// bounded queue is full. The work was never started.
	ErrCapacityExceeded = errors.New(Namespace + ": pool queue at capacity")

	// ErrShutdown is returned by Submit once Registry.Shutdown has begun.
	ErrShutdown = errors.New(Namespace + ": registry is shut down")

	// ErrCancelled is the cause recorded on a Cancelled outcome.
	ErrCancelled = errors.New(Namespace + ": submission cancelled by caller")

	// ErrFallbackFailed is returned by Submit when the fallback function
	// itself panics. There is no second-level fallback; this surfaces to
	// the caller as a programming error.
	ErrFallbackFailed = errors.New(Namespace + ": fallback function failed")

	// ErrWorkPanicked wraps a panic raised by the work function; it is
	// handled like any other work error and routed through the fallback.
	ErrWorkPanicked = errors.New(Namespace + ": work function panicked")

	ErrInvalidConfig     = errors.New(Namespace + ": invalid configuration")
	ErrInvalidDescriptor = errors.New(Namespace + ": invalid task descriptor")

	// ErrDuplicateCapability and ErrUnknownCapability are returned by
	// Catalog on conflicting or missing registrations.
	ErrDuplicateCapability = errors.New(Namespace + ": capability already registered")
	ErrUnknownCapability   = errors.New(Namespace + ": capability not registered")
)
