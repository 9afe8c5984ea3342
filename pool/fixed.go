package pool

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Fixed is a fixed-size pool with a bounded work queue, sized for
// CPU-bound work. When the queue is full, Submit fails immediately with
// ErrQueueFull rather than blocking the caller.
type Fixed struct {
	queue     chan func()
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	logger    *zap.Logger
}

// NewFixed creates a Fixed pool and starts its workers. A non-positive
// workers count defaults to runtime.NumCPU(); a non-positive
// queueCapacity defaults to 1.
func NewFixed(workers, queueCapacity int, logger *zap.Logger) *Fixed {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueCapacity <= 0 {
		queueCapacity = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Fixed{
		queue:  make(chan func(), queueCapacity),
		closed: make(chan struct{}),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		f.wg.Add(1)
		go f.run(i)
	}
	return f
}

func (f *Fixed) run(id int) {
	defer f.wg.Done()
	logger := f.logger.With(zap.String("worker", "computation"), zap.Int("id", id))
	logger.Debug("worker started")

	for {
		select {
		case <-f.closed:
			// Drain already-accepted work, then exit.
			for {
				select {
				case fn := <-f.queue:
					fn()
				default:
					logger.Debug("worker stopped")
					return
				}
			}
		case fn := <-f.queue:
			fn()
		}
	}
}

// Submit schedules fn. It returns ErrClosed after Shutdown and
// ErrQueueFull when the queue is at capacity.
func (f *Fixed) Submit(fn func()) error {
	select {
	case <-f.closed:
		return ErrClosed
	default:
	}
	select {
	case f.queue <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueDepth reports the number of queued, not yet started functions.
func (f *Fixed) QueueDepth() int { return len(f.queue) }

// Shutdown stops intake and waits for workers to drain the queue until
// ctx is done.
func (f *Fixed) Shutdown(ctx context.Context) error {
	f.closeOnce.Do(func() { close(f.closed) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.wg.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
