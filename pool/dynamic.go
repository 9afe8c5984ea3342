package pool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dynamic is an elastic pool for I/O-bound work. There is no upper bound
// on concurrently running tasks: Submit hands work to an idle worker when
// one exists and spawns a new worker otherwise. Workers that stay idle
// for idleTimeout are reclaimed, so sustained low load does not retain
// resources indefinitely.
type Dynamic struct {
	idleTimeout time.Duration
	logger      *zap.Logger

	mu     sync.Mutex
	idle   []*dynWorker
	closed bool
	seq    int

	wg sync.WaitGroup
}

// dynWorker receives work over a one-slot channel so handoff from Submit
// never blocks.
type dynWorker struct {
	ch chan func()
}

// NewDynamic creates a Dynamic pool. A non-positive idleTimeout defaults
// to one minute.
func NewDynamic(idleTimeout time.Duration, logger *zap.Logger) *Dynamic {
	if idleTimeout <= 0 {
		idleTimeout = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dynamic{idleTimeout: idleTimeout, logger: logger}
}

// Submit schedules fn on an idle worker, spawning one if none is parked.
// It returns ErrClosed after Shutdown.
func (d *Dynamic) Submit(fn func()) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if n := len(d.idle); n > 0 {
		w := d.idle[n-1]
		d.idle = d.idle[:n-1]
		d.mu.Unlock()
		w.ch <- fn
		return nil
	}
	d.seq++
	id := d.seq
	d.wg.Add(1)
	d.mu.Unlock()

	w := &dynWorker{ch: make(chan func(), 1)}
	w.ch <- fn
	go d.run(w, id)
	return nil
}

func (d *Dynamic) run(w *dynWorker, id int) {
	defer d.wg.Done()
	logger := d.logger.With(zap.String("worker", "io"), zap.Int("id", id))
	logger.Debug("worker started")

	timer := time.NewTimer(d.idleTimeout)
	defer timer.Stop()

	for {
		select {
		case fn, ok := <-w.ch:
			if !ok {
				logger.Debug("worker stopped")
				return
			}
			fn()
			if !d.park(w, timer) {
				logger.Debug("worker stopped")
				return
			}

		case <-timer.C:
			d.mu.Lock()
			if d.unlink(w) {
				d.mu.Unlock()
				logger.Debug("idle worker reclaimed")
				return
			}
			d.mu.Unlock()
			// Lost the race: Submit popped this worker concurrently (a
			// function is in flight on w.ch) or Shutdown closed it.
			fn, ok := <-w.ch
			if !ok {
				logger.Debug("worker stopped")
				return
			}
			fn()
			if !d.park(w, timer) {
				logger.Debug("worker stopped")
				return
			}
		}
	}
}

// park returns the worker to the idle list and re-arms its reclaim timer.
// It reports false when the pool is closed and the worker should exit.
func (d *Dynamic) park(w *dynWorker, timer *time.Timer) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.idle = append(d.idle, w)
	d.mu.Unlock()

	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d.idleTimeout)
	return true
}

// unlink removes w from the idle list. Caller holds d.mu.
func (d *Dynamic) unlink(w *dynWorker) bool {
	for i, candidate := range d.idle {
		if candidate == w {
			d.idle = append(d.idle[:i], d.idle[i+1:]...)
			return true
		}
	}
	return false
}

// Idle reports the number of parked workers.
func (d *Dynamic) Idle() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.idle)
}

// Shutdown stops intake, releases parked workers, and waits for running
// work to finish until ctx is done.
func (d *Dynamic) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, w := range d.idle {
			close(w.ch)
		}
		d.idle = nil
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.wg.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
