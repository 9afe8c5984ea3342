package offload

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/offloadkit/offload/pool"
)

// Aggregator is a concurrent counter store keyed by an arbitrary label,
// with a periodic flush that runs on the background lane. Record is safe
// under unbounded concurrent callers and never blocks beyond one atomic
// increment; the flush resets each counter independently, so no Record
// is ever lost or double-counted across a flush boundary.
type Aggregator struct {
	counters sync.Map // label (string) -> *atomic.Int64

	threshold int64
	alerts    AlertSink
	flushes   FlushSink
	logger    *zap.Logger
}

func newAggregator(cfg *config) *Aggregator {
	return &Aggregator{
		threshold: cfg.AlertThreshold,
		alerts:    cfg.Alerts,
		flushes:   cfg.Flushes,
		logger:    cfg.Logger,
	}
}

// Record increments the counter for key, creating it at zero on first
// use.
func (a *Aggregator) Record(key string) {
	if c, ok := a.counters.Load(key); ok {
		c.(*atomic.Int64).Add(1)
		return
	}
	c, _ := a.counters.LoadOrStore(key, new(atomic.Int64))
	c.(*atomic.Int64).Add(1)
}

// Flush atomically reads and resets every counter. Each entry's
// read-and-reset is an independent atomic swap; Flush holds no lock over
// the whole map, so concurrent Record calls land either before the swap
// or after it, never both. Counters read above the alert threshold are
// reported to the alert sink; every non-zero counter goes to the flush
// sink. With no non-zero counters, Flush produces no events.
//
// Flush is normally driven by the schedule on the background lane, but
// may be called directly.
func (a *Aggregator) Flush() {
	flushed := 0
	a.counters.Range(func(k, v any) bool {
		label := k.(string)
		count := v.(*atomic.Int64).Swap(0)
		if count == 0 {
			return true
		}
		flushed++
		a.logger.Info("flushed counter", zap.String("label", label), zap.Int64("count", count))
		if a.flushes != nil {
			a.flushes.Flushed(label, count)
		}
		if count > a.threshold {
			a.logger.Warn("high traffic detected",
				zap.String("label", label),
				zap.Int64("count", count),
				zap.Int64("threshold", a.threshold))
			if a.alerts != nil {
				a.alerts.Alert(label, count)
			}
		}
		return true
	})
	if flushed == 0 {
		a.logger.Debug("no counters to flush")
	}
}

// count reports the current value for key without resetting it.
func (a *Aggregator) count(key string) int64 {
	if c, ok := a.counters.Load(key); ok {
		return c.(*atomic.Int64).Load()
	}
	return 0
}

// schedule starts the periodic flush: after initialDelay, Flush is
// submitted to the background lane every interval until ctx is
// cancelled. Running on the lane keeps flushes strictly ordered with any
// other background work.
func (a *Aggregator) schedule(ctx context.Context, lane pool.Executor, initialDelay, interval time.Duration) {
	go func() {
		delay := time.NewTimer(initialDelay)
		defer delay.Stop()
		select {
		case <-ctx.Done():
			return
		case <-delay.C:
		}
		a.submitFlush(lane)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.submitFlush(lane)
			}
		}
	}()
}

func (a *Aggregator) submitFlush(lane pool.Executor) {
	if err := lane.Submit(a.Flush); err != nil {
		// Lane closed during shutdown, or a saturated background queue.
		a.logger.Debug("flush skipped", zap.Error(err))
	}
}
