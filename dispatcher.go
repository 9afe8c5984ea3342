package offload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"

	"github.com/offloadkit/offload/pool"
)

// Dispatcher is the offloading primitive: it routes a Descriptor's work
// to the lane its Kind classifies to and races the work against the
// descriptor's timeout. One Dispatcher serves submissions of any result
// type through the package-level Submit function.
//
// Construct with New; release resources with Shutdown.
type Dispatcher struct {
	registry   *Registry
	classifier *Classifier
	metrics    *Aggregator
	logger     *zap.Logger
}

// New assembles a Dispatcher, its lane registry, and its metrics
// aggregator from functional options, and schedules the periodic metrics
// flush on the background lane.
func New(opts ...Option) (*Dispatcher, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	registry := newRegistry(&cfg)
	metrics := newAggregator(&cfg)
	metrics.schedule(registry.baseCtx, registry.background, cfg.FlushInitialDelay, cfg.FlushInterval)

	return &Dispatcher{
		registry:   registry,
		classifier: cfg.Classifier,
		metrics:    metrics,
		logger:     cfg.Logger,
	}, nil
}

// Record increments the usage counter for key. It never blocks.
func (d *Dispatcher) Record(key string) { d.metrics.Record(key) }

// Metrics returns the dispatcher's aggregator.
func (d *Dispatcher) Metrics() *Aggregator { return d.metrics }

// Shutdown stops the lane registry; see Registry.Shutdown. Submissions
// after Shutdown fail with ErrShutdown.
func (d *Dispatcher) Shutdown(gracePeriod time.Duration) {
	d.registry.Shutdown(gracePeriod)
}

type result[R any] struct {
	value R
	err   error
}

// Submit runs desc.Work on the lane selected for desc.Kind and waits for
// the first of: work completion, the timeout elapsing, or ctx being done.
//
// Exactly one Outcome is produced per call:
//   - work completes in time: Completed with the work's value;
//   - work fails in time: OnError is notified, then FallbackApplied with
//     the fallback value and the work error as Cause;
//   - the timer fires first: OnError is notified, then FallbackApplied
//     with ErrTimeout as Cause; the work is not stopped — it keeps
//     running detached with a cancelled context and its late result is
//     discarded;
//   - ctx is done first: Cancelled, without invoking the fallback.
//
// Errors returned alongside a zero Outcome mean the work never ran
// (ErrInvalidDescriptor, ErrCapacityExceeded, ErrShutdown) or that the
// fallback itself is broken (ErrFallbackFailed).
func Submit[R any](ctx context.Context, d *Dispatcher, desc Descriptor[R]) (Outcome[R], error) {
	var zero Outcome[R]

	if err := desc.validate(); err != nil {
		return zero, err
	}
	lane, ok := d.classifier.Classify(desc.Kind)
	if !ok {
		return zero, errorc.With(ErrInvalidDescriptor, errorc.String("kind", desc.Kind.String()))
	}

	// The work context is cancelled when the race is decided, and also
	// once the registry's shutdown grace period expires.
	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()
	stop := context.AfterFunc(d.registry.baseCtx, cancelWork)
	defer stop()

	// Capacity 1 so the work goroutine can always deliver; the losing
	// branch of the race simply abandons the channel and a late result
	// is dropped here, never observed by the caller.
	results := make(chan result[R], 1)

	if err := d.registry.lane(lane).Submit(func() {
		value, err := runWork(workCtx, desc.Work)
		results <- result[R]{value: value, err: err}
	}); err != nil {
		return zero, submissionError(err, lane)
	}

	timer := time.NewTimer(desc.Timeout)
	defer timer.Stop()

	select {
	case r := <-results:
		if r.err != nil {
			d.logger.Debug("work failed, applying fallback",
				zap.String("kind", desc.Kind.String()), zap.Error(r.err))
			return applyFallback(desc, r.err)
		}
		return Outcome[R]{State: Completed, Value: r.value}, nil

	case <-timer.C:
		d.logger.Warn("work timed out, applying fallback",
			zap.String("kind", desc.Kind.String()), zap.Duration("timeout", desc.Timeout))
		return applyFallback(desc, ErrTimeout)

	case <-ctx.Done():
		return Outcome[R]{State: Cancelled, Cause: fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())}, nil
	}
}

// runWork executes the work function with panic containment: a panic is
// converted into a work error and routed through the fallback like any
// other failure.
func runWork[R any](ctx context.Context, work Task[R]) (value R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrWorkPanicked, rec)
		}
	}()
	return work(ctx)
}

// applyFallback notifies OnError and computes the substitute value.
// A panicking fallback is fatal for the submission: there is no second
// fallback layer, so it surfaces as ErrFallbackFailed.
func applyFallback[R any](desc Descriptor[R], cause error) (Outcome[R], error) {
	if desc.OnError != nil {
		desc.OnError(cause)
	}
	value, err := runFallback(desc.Fallback, cause)
	if err != nil {
		return Outcome[R]{}, err
	}
	return Outcome[R]{State: FallbackApplied, Value: value, Cause: cause}, nil
}

func runFallback[R any](fb Fallback[R], cause error) (value R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrFallbackFailed, rec)
		}
	}()
	return fb(cause), nil
}

// submissionError translates lane-level sentinels into the package
// taxonomy surfaced by Submit.
func submissionError(err error, lane Lane) error {
	switch {
	case errors.Is(err, pool.ErrClosed):
		return ErrShutdown
	case errors.Is(err, pool.ErrQueueFull):
		return errorc.With(ErrCapacityExceeded, errorc.String("lane", lane.String()))
	default:
		return err
	}
}
