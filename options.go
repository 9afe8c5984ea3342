package offload

import (
	"time"

	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"
)

// Option configures a Dispatcher. Use New(opts...) to construct one.
type Option func(*config) error

// WithCPUPoolSize sets the CPU lane worker count (must be > 0).
// Without this option the lane is sized to hardware concurrency.
func WithCPUPoolSize(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithCPUPoolSize requires n > 0"))
		}
		cfg.CPUPoolSize = n
		return nil
	}
}

// WithCPUQueueCapacity sets the CPU lane's bounded backlog (default 1000).
func WithCPUQueueCapacity(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithCPUQueueCapacity requires n > 0"))
		}
		cfg.CPUQueueCapacity = n
		return nil
	}
}

// WithIOIdleTimeout sets the idle-worker reclaim interval for the I/O
// lane (default 60s).
func WithIOIdleTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithIOIdleTimeout requires d > 0"))
		}
		cfg.IOIdleTimeout = d
		return nil
	}
}

// WithBackgroundQueueCapacity sets the background lane's queue size
// (default 1024).
func WithBackgroundQueueCapacity(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithBackgroundQueueCapacity requires n > 0"))
		}
		cfg.BackgroundQueueCapacity = n
		return nil
	}
}

// WithFlushInterval sets the period of the background metrics flush
// (default 5s).
func WithFlushInterval(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithFlushInterval requires d > 0"))
		}
		cfg.FlushInterval = d
		return nil
	}
}

// WithFlushInitialDelay sets the delay before the first flush (default 2s).
func WithFlushInitialDelay(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithFlushInitialDelay requires d >= 0"))
		}
		cfg.FlushInitialDelay = d
		return nil
	}
}

// WithAlertThreshold sets the per-label flushed count above which an
// alert fires (default 3).
func WithAlertThreshold(n int64) Option {
	return func(cfg *config) error {
		if n < 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithAlertThreshold requires n >= 0"))
		}
		cfg.AlertThreshold = n
		return nil
	}
}

// WithLogger injects a structured logger (default zap.NewNop()).
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) error {
		if logger == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = logger
		return nil
	}
}

// WithAlertSink injects the sink receiving (label, count) alert events.
func WithAlertSink(sink AlertSink) Option {
	return func(cfg *config) error {
		cfg.Alerts = sink
		return nil
	}
}

// WithFlushSink injects an observer of every non-zero counter flush.
func WithFlushSink(sink FlushSink) Option {
	return func(cfg *config) error {
		cfg.Flushes = sink
		return nil
	}
}

// WithClassifier replaces the default Kind to lane routing policy.
func WithClassifier(c *Classifier) Option {
	return func(cfg *config) error {
		if c == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithClassifier requires a non-nil classifier"))
		}
		cfg.Classifier = c
		return nil
	}
}
