package pool

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Serial executes submitted functions strictly in arrival order on a
// single worker. A long-running function delays everything behind it;
// this trades throughput for predictability, which is what batch and
// flush work on the background lane wants.
type Serial struct {
	queue     chan func()
	closed    chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	logger    *zap.Logger
}

// NewSerial creates a Serial lane and starts its worker. A non-positive
// queueCapacity defaults to 1024.
func NewSerial(queueCapacity int, logger *zap.Logger) *Serial {
	if queueCapacity <= 0 {
		queueCapacity = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Serial{
		queue:  make(chan func(), queueCapacity),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go s.run()
	return s
}

func (s *Serial) run() {
	defer close(s.done)
	logger := s.logger.With(zap.String("worker", "background"))
	logger.Debug("worker started")

	for {
		select {
		case <-s.closed:
			for {
				select {
				case fn := <-s.queue:
					fn()
				default:
					logger.Debug("worker stopped")
					return
				}
			}
		case fn := <-s.queue:
			fn()
		}
	}
}

// Submit schedules fn behind everything already queued. It returns
// ErrClosed after Shutdown and ErrQueueFull when the queue is at
// capacity.
func (s *Serial) Submit(fn func()) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	select {
	case s.queue <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops intake and waits for the worker to drain the queue
// until ctx is done.
func (s *Serial) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closed) })
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
